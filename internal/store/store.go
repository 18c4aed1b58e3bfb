package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidDraft = errors.New("invalid post")

const DefaultRetentionCap = 50

// Store owns ordering, ids and retention for whatever Repository backs it.
// Updates are last-writer-wins; nothing coordinates separate processes
// sharing one backend.
type Store struct {
	repo     Repository
	cap      int
	validate *validator.Validate

	// mu keeps Seq assignment and eviction consistent inside one process.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

func New(repo Repository, retentionCap int) *Store {
	if retentionCap <= 0 {
		retentionCap = DefaultRetentionCap
	}
	return &Store{
		repo:     repo,
		cap:      retentionCap,
		validate: validator.New(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Store) Close() error {
	return s.repo.Close()
}

// SortPosts orders newest first. Equal publish times put the most recently
// added post first.
func SortPosts(posts []model.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.Seq > b.Seq
	})
}

func (s *Store) List(ctx context.Context) ([]model.Post, error) {
	posts, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	SortPosts(posts)
	return posts, nil
}

func (s *Store) Get(ctx context.Context, id string) (model.Post, error) {
	return s.repo.Get(ctx, strings.TrimSpace(id))
}

// ValidateDraft reports every failing field wrapped in ErrInvalidDraft.
func (s *Store) ValidateDraft(d model.PostDraft) error {
	d.Platform = strings.ToLower(strings.TrimSpace(d.Platform))
	if canonical, ok := model.ParsePlatform(d.Platform); ok {
		d.Platform = string(canonical)
	}
	if err := s.validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	if strings.TrimSpace(d.Text) == "" {
		return fmt.Errorf("%w: Text (required)", ErrInvalidDraft)
	}
	return nil
}

func applyDraft(p *model.Post, d model.PostDraft) {
	if platform, ok := model.ParsePlatform(d.Platform); ok {
		p.Platform = platform
	} else {
		p.Platform = model.Platform(strings.ToLower(strings.TrimSpace(d.Platform)))
	}
	p.Text = strings.TrimSpace(d.Text)
	p.OriginalText = strings.TrimSpace(d.OriginalText)
	p.Media = model.DedupeMedia(d.Media)
	for i := range p.Media {
		p.Media[i].SourceURL = model.NormalizeMediaURL(p.Media[i].SourceURL)
		p.Media[i].DisplayURL = ""
	}
	p.SourceURL = strings.TrimSpace(d.SourceURL)
	p.PublishedAt = d.PublishedAt.UTC()
	p.Engagement = d.Engagement
	p.Verified = true
	if d.Verified != nil {
		p.Verified = *d.Verified
	}
	p.Source = strings.TrimSpace(d.Source)
	if p.Source == "" {
		p.Source = model.SourceManualVerified
	}
}

// DraftPost builds an unsaved post from a draft. ID, AddedAt and Seq are
// left to the caller.
func DraftPost(d model.PostDraft) model.Post {
	var p model.Post
	applyDraft(&p, d)
	return p
}

// Create stores a new post and evicts the oldest insertions beyond the cap.
func (s *Store) Create(ctx context.Context, d model.PostDraft) (model.Post, error) {
	if err := s.ValidateDraft(d); err != nil {
		return model.Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.All(ctx)
	if err != nil {
		return model.Post{}, err
	}
	var maxSeq int64
	for _, p := range existing {
		if p.Seq > maxSeq {
			maxSeq = p.Seq
		}
	}

	post := model.Post{
		ID:      s.newID(),
		AddedAt: s.now().UTC(),
		Seq:     maxSeq + 1,
	}
	applyDraft(&post, d)
	if err := s.repo.Put(ctx, post); err != nil {
		return model.Post{}, err
	}

	all := append(existing, post)
	if len(all) > s.cap {
		sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
		for _, old := range all[:len(all)-s.cap] {
			if err := s.repo.Delete(ctx, old.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return post, fmt.Errorf("evict post %s: %w", old.ID, err)
			}
			logger.Info("post evicted", "id", old.ID, "seq", old.Seq, "cap", s.cap)
		}
	}
	return post, nil
}

// Update replaces the content of a post, keeping its identity and insertion
// order.
func (s *Store) Update(ctx context.Context, id string, d model.PostDraft) (model.Post, error) {
	if err := s.ValidateDraft(d); err != nil {
		return model.Post{}, err
	}
	post, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return model.Post{}, err
	}
	applyDraft(&post, d)
	if err := s.repo.Put(ctx, post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// UpdateEngagement overlays only the reported counts.
func (s *Store) UpdateEngagement(ctx context.Context, id string, e model.PartialEngagement) (model.Post, error) {
	if e.IsEmpty() {
		return model.Post{}, fmt.Errorf("%w: no engagement counts", ErrInvalidDraft)
	}
	post, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return model.Post{}, err
	}
	post.Engagement = e.ApplyTo(post.Engagement)
	now := s.now().UTC()
	post.EngagementUpdatedAt = &now
	if err := s.repo.Put(ctx, post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// Delete removes a post and returns what was removed.
func (s *Store) Delete(ctx context.Context, id string) (model.Post, error) {
	id = strings.TrimSpace(id)
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return model.Post{}, err
	}
	return post, nil
}
