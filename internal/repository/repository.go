// Package repository is a thin, hand-written query layer over pgx: no
// code generation, just NamedArgs and pgx.RowToStructByName against the
// pool held by Queries.
package repository

import "github.com/jackc/pgx/v5/pgxpool"

type Queries struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}
