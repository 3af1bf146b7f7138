package sdk

import (
	stdErrors "errors"
	"fmt"
	"reflect"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/application/schema"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/resumable"
)

// Result is a value or an error, the ready payload of a prompt.
type Result[T any] struct {
	Value T
	Err   error
}

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// Prompt asks the host to fill out a form for T. It pauses until the host has
// an answer; the answer is decoded into T.
func Prompt[T any](c *Client) resumable.Resumable[Result[T]] {
	doc, err := schema.DeriveDocument(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return resumable.Ready(Result[T]{Err: err})
	}

	return resumable.Then(c.PromptWithSchema(doc), func(r Result[any]) resumable.Resumable[Result[T]] {
		if r.Err != nil {
			return resumable.Ready(Result[T]{Err: r.Err})
		}
		var v T
		if err := codec.Convert(r.Value, &v); err != nil {
			return resumable.Ready(Result[T]{Err: fmt.Errorf("deserialize prompt answer: %w", err)})
		}
		return resumable.Ready(Result[T]{Value: v})
	})
}

// PromptWithSchema asks the host for a value matching a JSON Schema document.
func (c *Client) PromptWithSchema(doc map[string]any) resumable.Resumable[Result[any]] {
	blk, err := c.send(entities.PromptIn{Schema: doc})
	if err != nil {
		return resumable.Ready(Result[any]{Err: err})
	}

	var out resumable.Resumable[entities.PromptAnswer]
	if err := c.receive("host_prompt", c.imports.Prompt(blk.Addr, blk.Len), &out); err != nil {
		return resumable.Ready(Result[any]{Err: err})
	}

	return resumable.Then(out, func(ans entities.PromptAnswer) resumable.Resumable[Result[any]] {
		if ans.Error != "" {
			return resumable.Ready(Result[any]{Err: stdErrors.New(ans.Error)})
		}
		return resumable.Ready(Result[any]{Value: ans.Value})
	})
}
