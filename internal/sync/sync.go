package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colmryan/memora/internal/deck"
	"github.com/colmryan/memora/internal/gitsource"
	"github.com/colmryan/memora/internal/srs"
	"github.com/colmryan/memora/internal/store"
)

// Syncer reconciles deck sources against the card store. New cards are
// inserted with fresh scheduling state, re-tagged cards keep their
// state, and cards that vanished from their source are removed.
type Syncer struct {
	db       *store.DB
	sched    *srs.Scheduler
	reposDir string
}

// New creates a Syncer. Git sources are checked out under reposDir.
func New(db *store.DB, sched *srs.Scheduler, reposDir string) *Syncer {
	return &Syncer{db: db, sched: sched, reposDir: reposDir}
}

// IsGitPath reports whether a source path looks like a git remote
// rather than a local directory.
func IsGitPath(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// Run reconciles every registered source.
func (s *Syncer) Run() error {
	slog.Info("starting sync for all sources")
	sources, err := s.db.GetAllSources()
	if err != nil {
		return fmt.Errorf("get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(s.reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		scanPath := source.Path
		if source.Type == "git" {
			localRepoPath, err := gitURLToLocalPath(s.reposDir, source.Path)
			if err != nil {
				slog.Error("cannot determine local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("git sync failed", "url", source.Path, "error", err)
				continue
			}
			scanPath = localRepoPath
		}

		s.reconcile(source, scanPath)
	}
	slog.Info("sync complete")
	return nil
}

// reconcile walks one source directory and brings the store in line
// with the deck files found there.
func (s *Syncer) reconcile(source store.Source, scanPath string) {
	var (
		parsed      int
		inserted    int
		errs        []error
		foundHashes = make(map[string]bool)
	)

	walkErr := filepath.WalkDir(scanPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileCards, parseErr := deck.ParseFile(path)
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range fileCards {
			card.Hash = deck.Hash(card)
			parsed++
			foundHashes[card.Hash] = true

			existing, findErr := s.db.FindCardByHash(card.Hash)
			if findErr != nil {
				errs = append(errs, fmt.Errorf("db check for %s: %w", card.Hash, findErr))
				continue
			}
			if existing == nil {
				state := s.sched.NewCard(time.Now())
				if insertErr := s.db.InsertCard(card, state, source.ID); insertErr != nil {
					errs = append(errs, fmt.Errorf("db insert for %s: %w", card.Hash, insertErr))
					continue
				}
				inserted++
				continue
			}
			// Same content, possibly moved to another topic. Keep the
			// scheduling state, follow the deck file's tag.
			if existing.Topic != card.Topic {
				if tagErr := s.db.UpdateCardTopic(card.Hash, card.Topic); tagErr != nil {
					errs = append(errs, fmt.Errorf("db re-tag for %s: %w", card.Hash, tagErr))
				}
			}
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("error walking source", "path", scanPath, "error", walkErr)
		return
	}

	dbCards, err := s.db.CardsBySourceID(source.ID)
	if err != nil {
		slog.Error("error getting cards for source", "source_id", source.ID, "error", err)
		return
	}

	var orphaned int
	for _, dbCard := range dbCards {
		if !foundHashes[dbCard.Hash] {
			orphaned++
			if err := s.db.DeleteCardByHash(dbCard.Hash); err != nil {
				slog.Warn("failed to delete orphaned card", "hash", dbCard.Hash, "error", err)
			}
		}
	}

	if err := s.db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("failed to update last scanned", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", scanPath,
		"parsed_cards", parsed,
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"errors", len(errs),
	)
	for _, e := range errs {
		slog.Warn("reconciliation issue", "error", e)
	}
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		// scp-like syntax: git@host:user/repo.git
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
