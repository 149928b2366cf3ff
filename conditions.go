package accesskit

import (
	"reflect"
	"sync"
)

// ConditionFunc evaluates one condition key. It receives the expected value
// from the permission's condition map and the request context, and reports
// whether the condition holds.
type ConditionFunc func(expected any, rc RequestContext) bool

// ConditionEvaluator evaluates a permission's condition predicate map
// against a request context.
//
// Every key in a condition map must have a registered handler and every
// handler must pass (logical AND). A key without a handler makes the
// permission non-matching: an unrecognized condition is a configuration
// error, not a grant, so evaluation fails closed instead of silently
// ignoring it. An absent or empty condition map always evaluates true.
type ConditionEvaluator struct {
	mu       sync.RWMutex
	handlers map[string]ConditionFunc
}

// NewConditionEvaluator creates an evaluator with no registered keys.
func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{
		handlers: make(map[string]ConditionFunc),
	}
}

// Register registers keys with the default equality handler: the condition
// holds when the request context attribute deep-equals the expected value.
//
// Example:
//
//	evaluator := accesskit.NewConditionEvaluator().
//	    Register("ownChildOnly", "roomId")
func (e *ConditionEvaluator) Register(keys ...string) *ConditionEvaluator {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, key := range keys {
		k := key
		e.handlers[k] = func(expected any, rc RequestContext) bool {
			got, ok := rc.Attributes[k]
			return ok && reflect.DeepEqual(expected, got)
		}
	}
	return e
}

// RegisterFunc registers a custom handler for a condition key.
func (e *ConditionEvaluator) RegisterFunc(key string, fn ConditionFunc) *ConditionEvaluator {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handlers[key] = fn
	return e
}

// Recognizes reports whether a handler is registered for the key.
func (e *ConditionEvaluator) Recognizes(key string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.handlers[key]
	return ok
}

// Evaluate checks a condition map against a request context. Empty or nil
// conditions evaluate true (unconditional permission).
func (e *ConditionEvaluator) Evaluate(conditions map[string]any, rc RequestContext) bool {
	if len(conditions) == 0 {
		return true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for key, expected := range conditions {
		fn, ok := e.handlers[key]
		if !ok {
			// Fail closed on unknown keys.
			return false
		}
		if !fn(expected, rc) {
			return false
		}
	}
	return true
}

// DefaultConditionEvaluator returns an evaluator recognizing the condition
// keys the built-in roles use.
func DefaultConditionEvaluator() *ConditionEvaluator {
	return NewConditionEvaluator().Register("ownChildOnly")
}
