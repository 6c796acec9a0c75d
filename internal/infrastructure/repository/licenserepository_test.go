package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/license"
	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/shared/logger"
)

const (
	testHW1 = "a3f1b2c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2"
	testHW2 = "b4e2c3d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2b3"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.LicenseModel{}, &models.BindingHistoryModel{})
	require.NoError(t, err)

	return db
}

func strPtr(s string) *string { return &s }

func createTestLicense(t *testing.T, key string) *license.License {
	expiresAt := time.Now().Add(365 * 24 * time.Hour)
	lic, err := license.NewLicense(key, strPtr("org-1"), strPtr("pro"), []string{"export", "sso"}, &expiresAt, nil, nil)
	require.NoError(t, err)
	return lic
}

func mustHW(t *testing.T, raw string) vo.HardwareID {
	hw, err := vo.NewHardwareID(raw)
	require.NoError(t, err)
	return hw
}

func TestLicenseRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("create assigns ID", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-AAAA-BBBB-CCCC-DDDD")
		err := repo.Create(ctx, lic)
		assert.NoError(t, err)
		assert.NotZero(t, lic.ID())
	})

	t.Run("get by ID round-trips all fields", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-AAAA-BBBB-CCCC-EEEE")
		require.NoError(t, repo.Create(ctx, lic))

		found, err := repo.GetByID(ctx, lic.ID())
		assert.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, lic.Key(), found.Key())
		assert.Equal(t, lic.OrganizationID(), found.OrganizationID())
		assert.Equal(t, lic.Tier(), found.Tier())
		assert.Equal(t, []string{"export", "sso"}, found.Features())
		assert.Equal(t, vo.StatusActive, found.Status())
		assert.False(t, found.IsBound())
	})

	t.Run("get by key", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-AAAA-BBBB-CCCC-FFFF")
		require.NoError(t, repo.Create(ctx, lic))

		found, err := repo.GetByKey(ctx, "LIC-AAAA-BBBB-CCCC-FFFF")
		assert.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, lic.ID(), found.ID())
	})

	t.Run("not found returns nil without error", func(t *testing.T) {
		found, err := repo.GetByID(ctx, 99999)
		assert.NoError(t, err)
		assert.Nil(t, found)

		found, err = repo.GetByKey(ctx, "LIC-ZZZZ-ZZZZ-ZZZZ-ZZZZ")
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("duplicate key fails", func(t *testing.T) {
		lic1 := createTestLicense(t, "LIC-DUPE-DUPE-DUPE-DUPE")
		require.NoError(t, repo.Create(ctx, lic1))

		lic2 := createTestLicense(t, "LIC-DUPE-DUPE-DUPE-DUPE")
		err := repo.Create(ctx, lic2)
		assert.Error(t, err)
	})
}

func TestLicenseRepository_ExistsByKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db, logger.NewLogger())
	ctx := context.Background()

	lic := createTestLicense(t, "LIC-EXST-EXST-EXST-EXST")
	require.NoError(t, repo.Create(ctx, lic))

	exists, err := repo.ExistsByKey(ctx, "LIC-EXST-EXST-EXST-EXST")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByKey(ctx, "LIC-MSNG-MSNG-MSNG-MSNG")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestLicenseRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("persists status change", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-UPDT-UPDT-UPDT-AAAA")
		require.NoError(t, repo.Create(ctx, lic))

		require.NoError(t, lic.Revoke(0, "abuse", nil))
		require.NoError(t, repo.Update(ctx, lic))

		found, err := repo.GetByID(ctx, lic.ID())
		assert.NoError(t, err)
		assert.Equal(t, vo.StatusRevoked, found.Status())
		require.NotNil(t, found.RevokeReason())
		assert.Equal(t, "abuse", *found.RevokeReason())
	})

	t.Run("persists cleared binding columns as NULL", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-UPDT-UPDT-UPDT-BBBB")
		require.NoError(t, repo.Create(ctx, lic))

		claimed, err := repo.ClaimBinding(ctx, lic.ID(), mustHW(t, testHW1), nil, nil, time.Now())
		require.NoError(t, err)
		require.True(t, claimed)

		bound, err := repo.GetByID(ctx, lic.ID())
		require.NoError(t, err)
		require.True(t, bound.IsBound())

		require.NoError(t, bound.Release(mustHW(t, testHW1)))
		require.NoError(t, repo.Update(ctx, bound))

		found, err := repo.GetByID(ctx, lic.ID())
		assert.NoError(t, err)
		assert.False(t, found.IsBound())
		assert.Nil(t, found.BoundAt())
	})
}

func TestLicenseRepository_ClaimBinding(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("claims unbound license", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-CLAM-CLAM-CLAM-AAAA")
		require.NoError(t, repo.Create(ctx, lic))

		name := "workstation"
		claimed, err := repo.ClaimBinding(ctx, lic.ID(), mustHW(t, testHW1), &name, nil, time.Now())
		assert.NoError(t, err)
		assert.True(t, claimed)

		found, err := repo.GetByID(ctx, lic.ID())
		require.NoError(t, err)
		assert.True(t, found.IsBoundTo(mustHW(t, testHW1)))
		require.NotNil(t, found.DeviceName())
		assert.Equal(t, "workstation", *found.DeviceName())
		assert.Equal(t, 2, found.Version())
	})

	t.Run("second claim loses", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-CLAM-CLAM-CLAM-BBBB")
		require.NoError(t, repo.Create(ctx, lic))

		claimed, err := repo.ClaimBinding(ctx, lic.ID(), mustHW(t, testHW1), nil, nil, time.Now())
		require.NoError(t, err)
		require.True(t, claimed)

		claimed, err = repo.ClaimBinding(ctx, lic.ID(), mustHW(t, testHW2), nil, nil, time.Now())
		assert.NoError(t, err)
		assert.False(t, claimed)

		found, err := repo.GetByID(ctx, lic.ID())
		require.NoError(t, err)
		assert.True(t, found.IsBoundTo(mustHW(t, testHW1)))
	})

	t.Run("concurrent claims resolve to one winner", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-CLAM-CLAM-CLAM-CCCC")
		require.NoError(t, repo.Create(ctx, lic))

		hws := []string{testHW1, testHW2}
		results := make([]bool, len(hws))
		var wg sync.WaitGroup
		for i, raw := range hws {
			wg.Add(1)
			go func(i int, raw string) {
				defer wg.Done()
				claimed, err := repo.ClaimBinding(ctx, lic.ID(), mustHW(t, raw), nil, nil, time.Now())
				if err == nil {
					results[i] = claimed
				}
			}(i, raw)
		}
		wg.Wait()

		winners := 0
		for _, won := range results {
			if won {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestLicenseRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db, logger.NewLogger())
	ctx := context.Background()

	expiresAt := time.Now().Add(365 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		lic, err := license.NewLicense(fmt.Sprintf("LIC-LIST-AAAA-AAAA-%04d", i), strPtr("org-1"), strPtr("pro"), nil, &expiresAt, nil, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, lic))
	}
	other, err := license.NewLicense("LIC-LIST-BBBB-BBBB-0000", strPtr("org-2"), strPtr("basic"), nil, &expiresAt, nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, other))
	require.NoError(t, other.Revoke(0, "test", nil))
	require.NoError(t, repo.Update(ctx, other))

	t.Run("list all", func(t *testing.T) {
		licenses, total, err := repo.List(ctx, license.LicenseFilter{Page: 1, PageSize: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, licenses, 4)
	})

	t.Run("filter by organization", func(t *testing.T) {
		org := "org-1"
		licenses, total, err := repo.List(ctx, license.LicenseFilter{OrganizationID: &org, Page: 1, PageSize: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, licenses, 3)
	})

	t.Run("filter by status", func(t *testing.T) {
		status := string(vo.StatusRevoked)
		licenses, total, err := repo.List(ctx, license.LicenseFilter{Status: &status, Page: 1, PageSize: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, licenses, 1)
		assert.Equal(t, "LIC-LIST-BBBB-BBBB-0000", licenses[0].Key())
	})

	t.Run("filter by tier", func(t *testing.T) {
		tier := "basic"
		_, total, err := repo.List(ctx, license.LicenseFilter{Tier: &tier, Page: 1, PageSize: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("pagination", func(t *testing.T) {
		licenses, total, err := repo.List(ctx, license.LicenseFilter{Page: 1, PageSize: 3})
		assert.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, licenses, 3)

		licenses, _, err = repo.List(ctx, license.LicenseFilter{Page: 2, PageSize: 3})
		assert.NoError(t, err)
		assert.Len(t, licenses, 1)
	})

	t.Run("unknown sort field falls back to created_at", func(t *testing.T) {
		_, _, err := repo.List(ctx, license.LicenseFilter{SortBy: "key; DROP TABLE licenses", Page: 1, PageSize: 10})
		assert.NoError(t, err)
	})

	t.Run("sort by key descending", func(t *testing.T) {
		licenses, _, err := repo.List(ctx, license.LicenseFilter{SortBy: "key", SortDesc: true, Page: 1, PageSize: 10})
		assert.NoError(t, err)
		require.NotEmpty(t, licenses)
		assert.Equal(t, "LIC-LIST-BBBB-BBBB-0000", licenses[0].Key())
	})
}

func TestLicenseRepository_SweepQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db, logger.NewLogger())
	ctx := context.Background()
	now := time.Now()

	t.Run("finds suspended licenses past their grace deadline", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-SWEP-GRCE-AAAA-AAAA")
		require.NoError(t, repo.Create(ctx, lic))
		require.NoError(t, lic.Revoke(7, "payment failure", nil))
		require.NoError(t, repo.Update(ctx, lic))

		// Deadline still in the future, sweep must not pick it up.
		found, err := repo.FindSuspendedWithGraceExpired(ctx, now)
		assert.NoError(t, err)
		assert.Empty(t, found)

		found, err = repo.FindSuspendedWithGraceExpired(ctx, now.Add(8*24*time.Hour))
		assert.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, lic.ID(), found[0].ID())
	})

	t.Run("finds active licenses past expiry", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-SWEP-EXPR-AAAA-AAAA")
		require.NoError(t, repo.Create(ctx, lic))

		found, err := repo.FindActiveExpired(ctx, now)
		assert.NoError(t, err)
		assert.Empty(t, found)

		found, err = repo.FindActiveExpired(ctx, now.Add(400*24*time.Hour))
		assert.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, lic.ID(), found[0].ID())
	})

	t.Run("finds bound licenses not seen since cutoff", func(t *testing.T) {
		lic := createTestLicense(t, "LIC-SWEP-STAL-AAAA-AAAA")
		require.NoError(t, repo.Create(ctx, lic))

		claimed, err := repo.ClaimBinding(ctx, lic.ID(), mustHW(t, testHW1), nil, nil, now)
		require.NoError(t, err)
		require.True(t, claimed)

		bound, err := repo.GetByID(ctx, lic.ID())
		require.NoError(t, err)
		bound.TouchLastSeen()
		require.NoError(t, repo.Update(ctx, bound))

		found, err := repo.FindBoundNotSeenSince(ctx, now.Add(-time.Hour))
		assert.NoError(t, err)
		assert.Empty(t, found)

		found, err = repo.FindBoundNotSeenSince(ctx, now.Add(time.Hour))
		assert.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, lic.ID(), found[0].ID())
	})
}

func TestLicenseRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLicenseRepository(db, logger.NewLogger())
	ctx := context.Background()

	lic := createTestLicense(t, "LIC-DELT-DELT-DELT-DELT")
	require.NoError(t, repo.Create(ctx, lic))

	err := repo.Delete(ctx, lic.ID())
	assert.NoError(t, err)

	found, err := repo.GetByID(ctx, lic.ID())
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestBindingHistoryRepository(t *testing.T) {
	db := setupTestDB(t)
	licRepo := NewLicenseRepository(db, logger.NewLogger())
	histRepo := NewBindingHistoryRepository(db, logger.NewLogger())
	ctx := context.Background()

	lic := createTestLicense(t, "LIC-HIST-HIST-HIST-HIST")
	require.NoError(t, licRepo.Create(ctx, lic))

	t.Run("create assigns ID", func(t *testing.T) {
		entry, err := license.NewBindingHistoryEntry(lic.ID(), license.ActionBind, mustHW(t, testHW1), nil, nil, license.ActorClient, nil)
		require.NoError(t, err)

		err = histRepo.Create(ctx, entry)
		assert.NoError(t, err)
		assert.NotZero(t, entry.ID())
	})

	t.Run("returns entries newest first with limit", func(t *testing.T) {
		reason := "device inactive for more than 90 days"
		entry2, err := license.NewBindingHistoryEntry(lic.ID(), license.ActionSystemRelease, mustHW(t, testHW1), nil, nil, license.ActorSystem, &reason)
		require.NoError(t, err)
		require.NoError(t, histRepo.Create(ctx, entry2))

		entries, err := histRepo.GetByLicenseID(ctx, lic.ID(), 0)
		assert.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, license.ActionSystemRelease, entries[0].Action())
		assert.Equal(t, license.ActionBind, entries[1].Action())

		entries, err = histRepo.GetByLicenseID(ctx, lic.ID(), 1)
		assert.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, license.ActionSystemRelease, entries[0].Action())
	})

	t.Run("empty history for unknown license", func(t *testing.T) {
		entries, err := histRepo.GetByLicenseID(ctx, 99999, 0)
		assert.NoError(t, err)
		assert.Empty(t, entries)
	})
}
