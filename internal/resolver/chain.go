// Package resolver binds declarations of any backend to live entities. A
// Chain tries its stages in order; when every stage fails it reports a
// *reflection.ResolveError or, from the OrPlaceholder entry points, returns a
// read-only placeholder that answers every query from the declaration.
package resolver

import (
	"errors"
	"fmt"
	"sync/atomic"

	"codemodel/internal/live"
	"codemodel/internal/reflection"

	"go.uber.org/zap"
)

// ErrNoMatch is returned by a stage that cannot bind an element. The chain
// moves on to the next stage.
var ErrNoMatch = errors.New("no live entity")

// Stage binds declarations to live entities. Bind returns a value
// implementing the live interface of the element's kind.
type Stage interface {
	Name() string
	Bind(elem reflection.CodeElementInfo) (reflection.Declared, error)
}

type ResolveStats struct {
	Attempted int
	Resolved  int
	Skipped   int
}

type StageResult struct {
	Stage string
	Stats ResolveStats
}

type stageCounters struct {
	attempted, resolved, skipped atomic.Int64
}

// Chain is safe for concurrent use when its stages are.
type Chain struct {
	stages   []Stage
	counters []stageCounters
	logger   *zap.Logger
}

type Option func(*Chain)

func WithLogger(l *zap.Logger) Option {
	return func(c *Chain) { c.logger = l }
}

func NewChain(stages []Stage, opts ...Option) *Chain {
	c := &Chain{
		stages:   stages,
		counters: make([]stageCounters, len(stages)),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultChain binds elements of p directly and elements of other
// backends by unit and full name.
func NewDefaultChain(p *live.Policy, opts ...Option) *Chain {
	return NewChain([]Stage{NewHandleStage(p), NewRegistryStage(p)}, opts...)
}

// Stats reports per stage counters since the chain was created.
func (c *Chain) Stats() []StageResult {
	out := make([]StageResult, len(c.stages))
	for i, s := range c.stages {
		out[i] = StageResult{
			Stage: s.Name(),
			Stats: ResolveStats{
				Attempted: int(c.counters[i].attempted.Load()),
				Resolved:  int(c.counters[i].resolved.Load()),
				Skipped:   int(c.counters[i].skipped.Load()),
			},
		}
	}
	return out
}

// Resolve runs the stages in order. A stage error other than ErrNoMatch
// stops the chain.
func (c *Chain) Resolve(elem reflection.CodeElementInfo) (reflection.Declared, error) {
	if elem == nil {
		return nil, &reflection.ResolveError{Err: fmt.Errorf("%w: nil element", reflection.ErrInvalidArgument)}
	}
	if d, ok := elem.(reflection.Declared); ok {
		if _, placeholder := d.(placeholder); !placeholder {
			return d, nil
		}
		elem = reflection.Unwrap(elem)
	}
	for i, s := range c.stages {
		c.counters[i].attempted.Add(1)
		v, err := s.Bind(elem)
		switch {
		case err == nil:
			c.counters[i].resolved.Add(1)
			return v, nil
		case errors.Is(err, ErrNoMatch):
			c.counters[i].skipped.Add(1)
			continue
		}
		c.logger.Warn("resolution stage failed",
			zap.String("stage", s.Name()),
			zap.Stringer("element", elem),
			zap.Error(err),
		)
		return nil, &reflection.ResolveError{Element: elem, Err: err}
	}
	return nil, &reflection.ResolveError{Element: elem, Err: ErrNoMatch}
}

func resolveAs[T any](c *Chain, elem reflection.CodeElementInfo) (T, error) {
	var zero T
	v, err := c.Resolve(elem)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, &reflection.ResolveError{
			Element: elem,
			Err:     fmt.Errorf("%w: bound to %T", reflection.ErrInvalidOperation, v),
		}
	}
	return out, nil
}

func (c *Chain) ResolveAssembly(a reflection.AssemblyInfo) (live.Assembly, error) {
	return resolveAs[live.Assembly](c, a)
}

func (c *Chain) ResolveType(t reflection.TypeInfo) (live.Type, error) {
	return resolveAs[live.Type](c, t)
}

func (c *Chain) ResolveMethod(m reflection.MethodInfo) (live.Method, error) {
	return resolveAs[live.Method](c, m)
}

func (c *Chain) ResolveConstructor(ctor reflection.ConstructorInfo) (live.Constructor, error) {
	return resolveAs[live.Constructor](c, ctor)
}

func (c *Chain) ResolveField(f reflection.FieldInfo) (live.Field, error) {
	return resolveAs[live.Field](c, f)
}

func (c *Chain) ResolveProperty(p reflection.PropertyInfo) (live.Property, error) {
	return resolveAs[live.Property](c, p)
}

func (c *Chain) ResolveEvent(e reflection.EventInfo) (live.Event, error) {
	return resolveAs[live.Event](c, e)
}

func (c *Chain) ResolveParameter(p reflection.ParameterInfo) (live.Parameter, error) {
	return resolveAs[live.Parameter](c, p)
}

func (c *Chain) fallback(elem reflection.CodeElementInfo, err error) {
	c.logger.Debug("using placeholder", zap.Stringer("element", elem), zap.Error(err))
}

// The OrPlaceholder entry points never fail.

func (c *Chain) ResolveAssemblyOrPlaceholder(a reflection.AssemblyInfo) live.Assembly {
	v, err := c.ResolveAssembly(a)
	if err != nil {
		c.fallback(a, err)
		return &UnresolvedAssembly{AssemblyInfo: unwrapAs(a)}
	}
	return v
}

func (c *Chain) ResolveTypeOrPlaceholder(t reflection.TypeInfo) live.Type {
	v, err := c.ResolveType(t)
	if err != nil {
		c.fallback(t, err)
		return &UnresolvedType{TypeInfo: unwrapAs(t)}
	}
	return v
}

func (c *Chain) ResolveMethodOrPlaceholder(m reflection.MethodInfo) live.Method {
	v, err := c.ResolveMethod(m)
	if err != nil {
		c.fallback(m, err)
		return &UnresolvedMethod{MethodInfo: unwrapAs(m)}
	}
	return v
}

func (c *Chain) ResolveConstructorOrPlaceholder(ctor reflection.ConstructorInfo) live.Constructor {
	v, err := c.ResolveConstructor(ctor)
	if err != nil {
		c.fallback(ctor, err)
		return &UnresolvedConstructor{ConstructorInfo: unwrapAs(ctor)}
	}
	return v
}

func (c *Chain) ResolveFieldOrPlaceholder(f reflection.FieldInfo) live.Field {
	v, err := c.ResolveField(f)
	if err != nil {
		c.fallback(f, err)
		return &UnresolvedField{FieldInfo: unwrapAs(f)}
	}
	return v
}

func (c *Chain) ResolvePropertyOrPlaceholder(p reflection.PropertyInfo) live.Property {
	v, err := c.ResolveProperty(p)
	if err != nil {
		c.fallback(p, err)
		return &UnresolvedProperty{PropertyInfo: unwrapAs(p)}
	}
	return v
}

func (c *Chain) ResolveEventOrPlaceholder(e reflection.EventInfo) live.Event {
	v, err := c.ResolveEvent(e)
	if err != nil {
		c.fallback(e, err)
		return &UnresolvedEvent{EventInfo: unwrapAs(e)}
	}
	return v
}

func (c *Chain) ResolveParameterOrPlaceholder(p reflection.ParameterInfo) live.Parameter {
	v, err := c.ResolveParameter(p)
	if err != nil {
		c.fallback(p, err)
		return &UnresolvedParameter{ParameterInfo: unwrapAs(p)}
	}
	return v
}

// unwrapAs strips placeholders and live entities so placeholders never nest.
func unwrapAs[T reflection.CodeElementInfo](e T) T {
	if u, ok := reflection.Unwrap(e).(T); ok {
		return u
	}
	return e
}
