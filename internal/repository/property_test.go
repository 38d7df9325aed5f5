package repository_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/darkpan/internal/infrastructure/sqlite"
	"github.com/zjrosen/darkpan/internal/mocks"
	"github.com/zjrosen/darkpan/internal/paths"
	"github.com/zjrosen/darkpan/internal/repository"
	"github.com/zjrosen/darkpan/internal/repository/domain"
	"github.com/zjrosen/darkpan/internal/store"
)

// manifestExtractor answers from a table keyed by archive basename.
type manifestExtractor map[string]*domain.Manifest

func (m manifestExtractor) Extract(_ context.Context, archivePath string) (*domain.Manifest, error) {
	if man, ok := m[filepath.Base(archivePath)]; ok {
		return man, nil
	}
	return &domain.Manifest{}, nil
}

// TestCoordinator_OwnershipModel checks random add/remove sequences against
// a model: paths are unique, a LOCAL package stays with its first author
// while any distribution of theirs provides it, and both backends agree.
func TestCoordinator_OwnershipModel(t *testing.T) {
	authors := []string{"ALICE", "BOB", "CAROL"}
	pkgNames := []string{"Foo", "Bar", "Baz"}
	fetcher, locator := mocks.NewFetcher(t), mocks.NewLocator(t)

	rapid.Check(t, func(rt *rapid.T) {
		root, err := os.MkdirTemp("", "darkpan-model-")
		require.NoError(rt, err)
		defer func() { _ = os.RemoveAll(root) }()

		layout, err := paths.NewLayout(root)
		require.NoError(rt, err)
		db, err := sqlite.NewDB(layout.DBPath())
		require.NoError(rt, err)
		defer func() { _ = db.Close() }()

		fs := store.NewFileStore(layout)
		ctx := context.Background()
		require.NoError(rt, fs.Initialize(ctx))

		extractor := manifestExtractor{}
		coord := repository.NewCoordinator(db.DistributionRepository(), fs, extractor, fetcher, locator)

		// model: path -> (author, packages)
		type entry struct {
			author string
			pkgs   []string
		}
		model := map[string]entry{}
		owner := func(pkg string) string {
			for _, e := range model {
				for _, p := range e.pkgs {
					if p == pkg {
						return e.author
					}
				}
			}
			return ""
		}

		steps := rapid.IntRange(1, 12).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			author := rapid.SampledFrom(authors).Draw(rt, "author")
			pkg := rapid.SampledFrom(pkgNames).Draw(rt, "pkg")
			version := rapid.IntRange(1, 3).Draw(rt, "version")
			archive := fmt.Sprintf("%s-%d.tar.gz", pkg, version)
			distPath := domain.DistributionPath(author, archive)

			if rapid.Bool().Draw(rt, "remove") {
				_, err := coord.Remove(ctx, distPath)
				if _, ok := model[distPath]; ok {
					require.NoError(rt, err)
					delete(model, distPath)
				} else {
					require.ErrorIs(rt, err, domain.ErrNotFound)
				}
				continue
			}

			extractor[archive] = &domain.Manifest{
				Packages: []domain.PackageSpec{{Name: pkg, Version: fmt.Sprint(version)}},
			}
			src := filepath.Join(root, "incoming", archive)
			require.NoError(rt, os.MkdirAll(filepath.Dir(src), 0o750))
			require.NoError(rt, os.WriteFile(src, []byte(distPath), 0o600))

			_, err := coord.Add(ctx, src, author)
			switch current := owner(pkg); {
			case model[distPath].author != "":
				require.ErrorIs(rt, err, domain.ErrDuplicatePath)
			case current != "" && current != author:
				require.ErrorIs(rt, err, domain.ErrOwnershipConflict)
			default:
				require.NoError(rt, err)
				model[distPath] = entry{author: author, pkgs: []string{pkg}}
			}
		}

		report, err := coord.Verify(ctx)
		require.NoError(rt, err)
		require.True(rt, report.OK(), report.String())

		dists, err := coord.List(ctx)
		require.NoError(rt, err)
		require.Len(rt, dists, len(model))
		for _, d := range dists {
			require.Equal(rt, model[d.Path].author, d.Author)
		}
	})
}
