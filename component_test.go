package tmplstream

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pthm/tmplstream/lib/async"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	itemLit = Lit("<li>", "</li>")
	listLit = Lit("<ul>", "</ul>")
)

// countingRenderer returns out and counts how often it was called.
type countingRenderer struct {
	calls atomic.Int32
	out   func() any
}

func (c *countingRenderer) Render(ctx context.Context, props string) any {
	c.calls.Add(1)
	return c.out()
}

func invoke(out any) ([]string, error) {
	r := RenderFunc[struct{}](func(ctx context.Context, _ struct{}) any { return out })
	return drain(Invoke(context.Background(), r, struct{}{}))
}

func TestInvoke_ValidOutputs(t *testing.T) {
	a := itemLit.With("a")
	b := itemLit.With("b")

	tests := []struct {
		name string
		out  func() any
		want string
	}{
		{"nil", func() any { return nil }, ""},
		{"template", func() any { return a }, "<li>a</li>"},
		{"resolved future", func() any { return async.Resolved(a) }, "<li>a</li>"},
		{"future of any", func() any { return async.Resolved[any](b) }, "<li>b</li>"},
		{"pending future", func() any {
			return async.Go(context.Background(), func(ctx context.Context) (*Template, error) {
				time.Sleep(time.Millisecond)
				return a, nil
			})
		}, "<li>a</li>"},
		{"slice", func() any { return []*Template{a, b} }, "<li>a</li><li>b</li>"},
		{"slice of any", func() any { return []any{b, a} }, "<li>b</li><li>a</li>"},
		{"empty slice", func() any { return []*Template{} }, ""},
		{"seq", func() any { return slices.Values([]*Template{a, b}) }, "<li>a</li><li>b</li>"},
		{"generator", func() any { return async.FromSlice([]*Template{b, a}) }, "<li>b</li><li>a</li>"},
		{"channel", func() any {
			ch := make(chan *Template, 2)
			ch <- a
			ch <- b
			close(ch)
			return ch
		}, "<li>a</li><li>b</li>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingRenderer{out: tt.out}
			result, err := TestRender[string](r, "props")
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Text)
			assert.Equal(t, int32(1), r.calls.Load())
		})
	}
}

func TestInvoke_InvalidOutputs(t *testing.T) {
	invalid := []struct {
		name string
		out  any
	}{
		{"bool", true},
		{"int", 42},
		{"string", "<p>hi</p>"},
		{"array of primitives", []any{1, 2}},
		{"symbol", NewSymbol("s")},
		{"struct", struct{ A int }{1}},
		{"function", func() {}},
		{"future of number", async.Resolved(42)},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := invoke(tt.out)
			assert.Empty(t, chunks)
			require.Error(t, err)
			assert.Equal(t, "Invalid template.", err.Error())
			assert.True(t, IsInvalidComponentOutput(err))

			var outErr *InvalidComponentOutputError
			require.ErrorAs(t, err, &outErr)
		})
	}
}

func TestInvoke_FailureIsLazy(t *testing.T) {
	r := &countingRenderer{out: func() any { return 42 }}

	seq := Invoke[string](context.Background(), r, "props")
	assert.Equal(t, int32(1), r.calls.Load(), "component is called before the sequence is drained")

	_, err := drain(seq)
	assert.True(t, IsInvalidComponentOutput(err))
}

func TestInvoke_FailsAtOffendingElement(t *testing.T) {
	chunks, err := invoke([]any{itemLit.With("ok"), "bare"})
	assert.Equal(t, []string{"<li>", "ok", "</li>"}, chunks)
	assert.True(t, IsInvalidComponentOutput(err))

	_, err = invoke([]*Template{itemLit.With("a"), nil})
	assert.True(t, IsInvalidComponentOutput(err), "nil elements are not templates")
}

func TestInvoke_SlotsArePermissive(t *testing.T) {
	chunks, err := invoke(listLit.With([]any{42, true, []int{1, 2}, NewSymbol("s")}))
	require.NoError(t, err)

	var text string
	for _, c := range chunks {
		text += c
	}
	assert.Equal(t, "<ul>42true12Symbol(s)</ul>", text)
}

func TestInvoke_RejectedFutureIsPropagated(t *testing.T) {
	boom := errors.New("load failed")
	_, err := invoke(async.Rejected[*Template](boom))
	assert.True(t, err == boom, "got %v", err)
}

func TestComponent_Delegates(t *testing.T) {
	card := NewComponent("card", RenderFunc[string](func(ctx context.Context, title string) any {
		return Build([]string{"<h1>", "</h1>"}, title)
	}))

	assert.Equal(t, "card", card.Name())
	assert.Contains(t, card.Prefix(), "/_c/card-")
	assert.False(t, card.IsSensitive())
	assert.True(t, card.Sensitive().IsSensitive())

	result, err := TestRender[string](card, "Hi")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>", result.Text)

	s := RenderComponent[string](context.Background(), card, "x")
	defer s.Close()
	assert.Equal(t, "card", s.Root())
}

func TestComponent_PrefixDependsOnCallSite(t *testing.T) {
	r := RenderFunc[string](func(ctx context.Context, s string) any { return nil })
	first := NewComponent("dup", r)
	second := NewComponent("dup", r)
	assert.NotEqual(t, first.Prefix(), second.Prefix())
}

func TestComponent_URLRequiresRegistration(t *testing.T) {
	c := NewComponent("orphan", RenderFunc[string](func(ctx context.Context, s string) any { return nil }))
	_, err := c.URL("x")
	assert.ErrorContains(t, err, "not registered")
}
