package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docker/distribution"
	"github.com/docker/distribution/manifest/ocischema"
	"github.com/docker/distribution/manifest/schema2"
	"github.com/docker/distribution/reference"
	"github.com/docker/distribution/registry/api/errcode"
	"github.com/docker/distribution/registry/client"
	"github.com/docker/distribution/registry/client/transport"
	"github.com/falmar/swarmkeeper/internal/model"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog/log"
)

const catalogPageSize = 100

type Config struct {
	URL string
	// Username and Password, when set, are sent as basic auth.
	Username string
	Password string
	// Transport defaults to a clone of http.DefaultTransport.
	Transport http.RoundTripper
}

// Client is a read-mostly client for a docker distribution registry.
type Client struct {
	baseURL   string
	transport http.RoundTripper
}

func New(cfg *Config) *Client {
	base := cfg.Transport
	if base == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = 10 * time.Second
		base = t
	}

	var modifiers []transport.RequestModifier
	if cfg.Username != "" {
		header := http.Header{}
		header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cfg.Username+":"+cfg.Password)))
		modifiers = append(modifiers, transport.NewHeaderRequestModifier(header))
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		transport: transport.NewTransport(base, modifiers...),
	}
}

type TagDetail struct {
	Tag          string `json:"tag"`
	Digest       string `json:"digest"`
	MediaType    string `json:"media_type"`
	Size         int64  `json:"size"`
	Architecture string `json:"architecture"`
	OS           string `json:"os"`
	Created      string `json:"created"`
}

// ListRepositories returns an empty list when the registry cannot be read.
func (c *Client) ListRepositories(ctx context.Context) []string {
	reg, err := client.NewRegistry(c.baseURL, c.transport)
	if err != nil {
		log.Error().Err(err).Msg("failed to create registry client")
		return []string{}
	}

	repos := []string{}
	entries := make([]string, catalogPageSize)
	last := ""

	for {
		n, err := reg.Repositories(ctx, entries, last)
		n = min(n, len(entries))
		repos = append(repos, entries[:n]...)

		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return repos
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to list repositories")
			return []string{}
		}
		last = entries[n-1]
	}
}

// ListTags returns an empty list when the repository cannot be read.
func (c *Client) ListTags(ctx context.Context, repository string) []string {
	repo, err := c.repository(repository)
	if err != nil {
		log.Error().Err(err).Str("repository", repository).Msg("failed to list tags")
		return []string{}
	}

	tags, err := repo.Tags(ctx).All(ctx)
	if err != nil {
		log.Error().Err(err).Str("repository", repository).Msg("failed to list tags")
		return []string{}
	}
	if tags == nil {
		return []string{}
	}

	return tags
}

func (c *Client) GetTag(ctx context.Context, repository, tag string) (*TagDetail, error) {
	repo, err := c.repository(repository)
	if err != nil {
		return nil, err
	}

	desc, err := c.resolve(ctx, repo, tag)
	if err != nil {
		return nil, err
	}

	manifests, err := repo.Manifests(ctx)
	if err != nil {
		return nil, classify(err)
	}

	m, err := manifests.Get(ctx, desc.Digest)
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest %s:%s: %w", repository, tag, classify(err))
	}

	mediaType, _, err := m.Payload()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrOperationFailed, err)
	}

	detail := &TagDetail{
		Tag:       tag,
		Digest:    desc.Digest.String(),
		MediaType: mediaType,
	}

	var config distribution.Descriptor
	var layers []distribution.Descriptor
	switch mf := m.(type) {
	case *schema2.DeserializedManifest:
		config, layers = mf.Config, mf.Layers
	case *ocischema.DeserializedManifest:
		config, layers = mf.Config, mf.Layers
	default:
		layers = m.References()
	}

	detail.Size = config.Size
	for _, l := range layers {
		detail.Size += l.Size
	}

	if config.Digest != "" {
		var img ocispec.Image
		b, err := repo.Blobs(ctx).Get(ctx, config.Digest)
		if err == nil {
			err = json.Unmarshal(b, &img)
		}
		if err != nil {
			log.Warn().Err(err).Str("repository", repository).Str("tag", tag).Msg("failed to read image config")
		} else {
			detail.Architecture = img.Architecture
			detail.OS = img.OS
			if img.Created != nil {
				detail.Created = img.Created.UTC().Format(time.RFC3339)
			}
		}
	}

	return detail, nil
}

// DeleteTag deletes the manifest the tag points to. Every tag sharing
// that manifest goes with it.
func (c *Client) DeleteTag(ctx context.Context, repository, tag string) error {
	repo, err := c.repository(repository)
	if err != nil {
		return err
	}

	desc, err := c.resolve(ctx, repo, tag)
	if err != nil {
		return err
	}

	manifests, err := repo.Manifests(ctx)
	if err != nil {
		return classify(err)
	}

	if err := manifests.Delete(ctx, desc.Digest); err != nil {
		return fmt.Errorf("failed to delete manifest %s: %w", desc.Digest, classify(err))
	}

	log.Info().Str("repository", repository).Str("tag", tag).Str("digest", desc.Digest.String()).Msg("registry tag deleted")

	return nil
}

func (c *Client) repository(name string) (distribution.Repository, error) {
	named, err := reference.WithName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: repository %q: %w", model.ErrInvalidDefinition, name, err)
	}

	repo, err := client.NewRepository(named, c.baseURL, c.transport)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrOperationFailed, err)
	}

	return repo, nil
}

func (c *Client) resolve(ctx context.Context, repo distribution.Repository, tag string) (distribution.Descriptor, error) {
	desc, err := repo.Tags(ctx).Get(ctx, tag)
	if err != nil {
		return desc, fmt.Errorf("failed to resolve %s:%s: %w", repo.Named().Name(), tag, classify(err))
	}
	return desc, nil
}

// classify tags a registry error with the matching domain sentinel.
func classify(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", model.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", model.ErrOperationFailed, err)
}

func isNotFound(err error) bool {
	var errs errcode.Errors
	if errors.As(err, &errs) {
		for _, e := range errs {
			if isNotFound(e) {
				return true
			}
		}
		return false
	}

	var e errcode.Error
	if errors.As(err, &e) {
		return e.Code.Descriptor().HTTPStatusCode == http.StatusNotFound
	}

	var code errcode.ErrorCode
	if errors.As(err, &code) {
		return code.Descriptor().HTTPStatusCode == http.StatusNotFound
	}

	var tagErr distribution.ErrTagUnknown
	if errors.As(err, &tagErr) {
		return true
	}

	return errors.Is(err, distribution.ErrBlobUnknown)
}

// IsNotFound reports whether err came from a missing repository or tag.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
