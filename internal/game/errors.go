package game

import "errors"

var (
	// ErrContextInit reports a window or graphics context that could not be
	// created.
	ErrContextInit = errors.New("graphics context init failed")
	// ErrShaderCompile reports a shader that failed to compile or link.
	ErrShaderCompile = errors.New("shader compile failed")
)
