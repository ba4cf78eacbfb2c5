package rpc

import (
	"context"
	"encoding/json"
	"sort"
)

// XrplRequest represents an XRPL-style JSON-RPC request
// Format: {"method": "method_name", "params": [{...}]}
type XrplRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// Role-based access control
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

// RpcContext contains request-specific information
type RpcContext struct {
	Context  context.Context
	Role     Role
	ClientIP string
}

// MethodHandler is implemented by every RPC method
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
}

// HandlerFunc adapts a function to a guest-level MethodHandler.
type HandlerFunc func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)

func (f HandlerFunc) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return f(ctx, params)
}

func (f HandlerFunc) RequiredRole() Role { return RoleGuest }

// AdminFunc is a HandlerFunc that requires the admin role.
type AdminFunc func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)

func (f AdminFunc) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return f(ctx, params)
}

func (f AdminFunc) RequiredRole() Role { return RoleAdmin }

// MethodRegistry maps method names to handlers
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names in sorted order.
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}
