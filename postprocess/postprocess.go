// Package postprocess runs transformations over compiled artifacts before
// they are written into a cache directory.
//
//	env := engine.NewEnvironment(loader, engine.WithPostProcessor(processors.NewGoImports()))
package postprocess

import "fmt"

// Processor transforms the content of one artifact. path is the cache-relative
// location the artifact will be written to; processors that do not apply to
// the file type return content unchanged.
type Processor interface {
	ProcessContent(path string, content []byte) ([]byte, error)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(path string, content []byte) ([]byte, error)

func (f ProcessorFunc) ProcessContent(path string, content []byte) ([]byte, error) {
	return f(path, content)
}

// Chain applies processors in the order they were added.
type Chain struct {
	processors []Processor
}

func NewChain(processors ...Processor) *Chain {
	c := &Chain{}
	for _, p := range processors {
		c.Add(p)
	}
	return c
}

func (c *Chain) Add(processor Processor) {
	if processor == nil {
		return
	}
	c.processors = append(c.processors, processor)
}

func (c *Chain) AddFunc(fn func(path string, content []byte) ([]byte, error)) {
	c.Add(ProcessorFunc(fn))
}

// Process stops at the first failing processor.
func (c *Chain) Process(path string, content []byte) ([]byte, error) {
	result := content
	for i, processor := range c.processors {
		processed, err := processor.ProcessContent(path, result)
		if err != nil {
			return nil, fmt.Errorf("processor %d failed for %s: %w", i, path, err)
		}
		result = processed
	}
	return result, nil
}

func (c *Chain) HasProcessors() bool {
	return len(c.processors) > 0
}

func (c *Chain) Len() int {
	return len(c.processors)
}
