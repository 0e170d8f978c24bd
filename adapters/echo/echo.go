// Package tmplstreamecho provides Echo framework integration for tmplstream.
//
// Mount a component registry onto an Echo instance or group:
//
//	e := echo.New()
//	reg := tmplstreamecho.Mount(e)
//	reg.Add(myComponent)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	reg := tmplstreamecho.MountGroup(g, "/app")
//	reg.Add(myComponent)
//
// Stream a template from an ordinary handler with Render.
package tmplstreamecho

import (
	"crypto/rand"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pthm/tmplstream"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key     []byte
	regOpts []tmplstream.RegistryOption
}

// WithKey sets the props key for the registry.
// The key should be at least 32 bytes of cryptographically random data.
// If not provided, a random key is generated (suitable for development only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithRegistryOptions passes options through to tmplstream.NewRegistry.
func WithRegistryOptions(opts ...tmplstream.RegistryOption) Option {
	return func(o *options) {
		o.regOpts = append(o.regOpts, opts...)
	}
}

// Mount creates a registry and mounts its handler on an Echo instance under
// "/_c/".
//
//	e := echo.New()
//	reg := tmplstreamecho.Mount(e)
//	reg.Add(myComponent)
//
//	// With options:
//	reg := tmplstreamecho.Mount(e, tmplstreamecho.WithKey(key))
func Mount(e *echo.Echo, opts ...Option) *tmplstream.Registry {
	reg := newRegistry(opts)
	e.GET("/_c/*", echo.WrapHandler(reg.Handler()))
	return reg
}

// MountGroup creates a registry and mounts its handler on an Echo group, so
// components share the group's middleware (auth, logging, etc.). prefix is
// the group's path prefix; it is stripped before the registry routes the
// request.
//
//	g := e.Group("/app", authMiddleware)
//	reg := tmplstreamecho.MountGroup(g, "/app")
//	reg.Add(myComponent)
func MountGroup(g *echo.Group, prefix string, opts ...Option) *tmplstream.Registry {
	reg := newRegistry(opts)
	g.GET("/_c/*", echo.WrapHandler(http.StripPrefix(prefix, reg.Handler())))
	return reg
}

func newRegistry(opts []Option) *tmplstream.Registry {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	key := o.key
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("tmplstreamecho: failed to generate random key: %v", err))
		}
	}

	return tmplstream.NewRegistry(key, o.regOpts...)
}

// Render streams a template to the Echo response, flushing as chunks are
// produced.
//
//	func handler(c echo.Context) error {
//	    return tmplstreamecho.Render(c, page.With(title, body))
//	}
func Render(c echo.Context, t *tmplstream.Template) error {
	return tmplstream.ServeTemplate(c.Response(), c.Request(), t)
}
