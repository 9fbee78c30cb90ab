package domain

import (
	"errors"
	"fmt"
)

// ---------- Errores de dominio ----------
var (
	ErrArgumentConflict = errors.New("argument conflict")
	ErrEmptyResult      = errors.New("no results found")
	ErrEntityNotFound   = errors.New("entity not found")
)

// ArgumentConflictError se produce con first+last o after+before a la vez.
type ArgumentConflictError struct {
	A, B string
}

func (e *ArgumentConflictError) Error() string {
	return fmt.Sprintf("%q and %q cannot be used together", e.A, e.B)
}

func (e *ArgumentConflictError) Unwrap() error { return ErrArgumentConflict }

// EmptyResultError se produce cuando una conexión no devuelve registros.
type EmptyResultError struct {
	Type EntityType
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no %s results found", e.Type)
}

func (e *EmptyResultError) Unwrap() error { return ErrEmptyResult }

// EntityNotFoundError se produce cuando un identificador pedido no tiene registro.
type EntityNotFoundError struct {
	Type EntityType
	ID   int64
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("no %s exists with the id %d", e.Type, e.ID)
}

func (e *EntityNotFoundError) Unwrap() error { return ErrEntityNotFound }
