package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/repository"
	"github.com/rpattn/staffing/internal/repository/memstore"
	"github.com/stretchr/testify/require"
)

func TestFormatIdentifier(t *testing.T) {
	require.Equal(t, "PR240007AC", FormatIdentifier("PR", 2024, 7, "AC"))
	require.Equal(t, "ASG250123", FormatIdentifier("ASG", 2025, 123, ""))
	require.Equal(t, "PR2412345", FormatIdentifier("PR", 2024, 12345, ""))
}

func TestSequenceOf(t *testing.T) {
	seq, ok := SequenceOf("PR240007AC", "PR")
	require.True(t, ok)
	require.Equal(t, 7, seq)

	seq, ok = SequenceOf("ASG2410001", "ASG")
	require.True(t, ok)
	require.Equal(t, 10001, seq)

	for _, code := range []string{"", "PR24AC", "XX240001", "PR2400"} {
		_, ok := SequenceOf(code, "PR")
		require.False(t, ok, code)
	}
}

func TestCompanyInitials(t *testing.T) {
	require.Equal(t, "AC", CompanyInitials("Acme Corporation"))
	require.Equal(t, "PT", CompanyInitials("pt  tunas jaya abadi"))
	require.Equal(t, "Z", CompanyInitials("Zenith"))
	require.Equal(t, "ÉB", CompanyInitials("école Bleue"))
	require.Equal(t, "", CompanyInitials("   "))
}

func TestIdentifierGeneratorPropagatesOtherErrors(t *testing.T) {
	store := memstore.New(memstore.WithClock(clock))
	gen := NewIdentifierGenerator(clock, 3)
	boom := errors.New("insert failed")

	calls := 0
	err := store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, err := gen.Insert(ctx, tx, assignmentCodes, "", func(repository.Repositories, string) error {
			calls++
			return boom
		})
		return err
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestIdentifierGeneratorRetriesWithinTransaction(t *testing.T) {
	store := memstore.New(memstore.WithClock(clock))
	gen := NewIdentifierGenerator(clock, 5)
	client, err := store.Repositories().Clients.Create(context.Background(), domain.Client{ID: uuid.New(), Email: "a@x.com", CompanyName: "Acme"})
	require.NoError(t, err)

	var codes []string
	err = store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		for i := 0; i < 2; i++ {
			code, err := gen.Insert(ctx, tx, projectCodes, "A", func(repos repository.Repositories, code string) error {
				_, err := repos.Projects.Create(ctx, domain.Project{ID: uuid.New(), ProjectCode: code, ClientID: client.ID, ProjectName: code})
				return err
			})
			if err != nil {
				return err
			}
			codes = append(codes, code)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"PR240001A", "PR240002A"}, codes)
}
