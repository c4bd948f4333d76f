package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// MaxListCap is the hard upper bound on blob listing page sizes.
const MaxListCap int32 = 500

// BlobMeta describes a stored blob without its content.
type BlobMeta struct {
	Key          string    `json:"key"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ListResult holds one page of blob metadata. NextMarker is non-nil when
// more results are available.
type ListResult struct {
	Blobs      []BlobMeta `json:"blobs"`
	NextMarker *string    `json:"next_marker,omitempty"`
}

// ParseMaxResults parses a max_results query value, falling back to the
// configured default for empty input and capping at MaxListCap.
func ParseMaxResults(s string, fallback int32) (int32, error) {
	if s == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid max_results: %s", s)
	}

	return min(int32(n), MaxListCap), nil
}

func (a *azure) List(ctx context.Context, prefix, marker string, maxResults int32) (*ListResult, error) {
	opts := &azblob.ListBlobsFlatOptions{
		MaxResults: &maxResults,
	}
	if prefix != "" {
		opts.Prefix = &prefix
	}
	if marker != "" {
		opts.Marker = &marker
	}

	pager := a.client.NewListBlobsFlatPager(a.container, opts)

	page, err := pager.NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	result := &ListResult{Blobs: make([]BlobMeta, 0, len(page.Segment.BlobItems))}

	for _, item := range page.Segment.BlobItems {
		meta := BlobMeta{}
		if item.Name != nil {
			meta.Key = *item.Name
		}
		if props := item.Properties; props != nil {
			if props.ContentType != nil {
				meta.ContentType = *props.ContentType
			}
			if props.ContentLength != nil {
				meta.Size = *props.ContentLength
			}
			if props.LastModified != nil {
				meta.LastModified = *props.LastModified
			}
		}
		result.Blobs = append(result.Blobs, meta)
	}

	if page.NextMarker != nil && *page.NextMarker != "" {
		result.NextMarker = page.NextMarker
	}

	return result, nil
}

func (a *azure) Find(ctx context.Context, key string) (*BlobMeta, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	props, err := a.blobClient(key).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find blob %s: %w", key, err)
	}

	meta := &BlobMeta{Key: key}
	if props.ContentType != nil {
		meta.ContentType = *props.ContentType
	}
	if props.ContentLength != nil {
		meta.Size = *props.ContentLength
	}
	if props.LastModified != nil {
		meta.LastModified = *props.LastModified
	}

	return meta, nil
}
