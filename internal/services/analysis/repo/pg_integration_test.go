//go:build integration_pg

package repo

import (
	"testing"

	"satyanetra/internal/modkit/repokit"
	"satyanetra/internal/platform/store/pgtest"
)

func TestPG_Integration(t *testing.T) {
	st := pgtest.Open(t)
	checkStorage(t, repokit.MustBind(NewPG(), st.PG))
}
