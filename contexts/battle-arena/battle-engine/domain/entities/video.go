package entities

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
)

type VideoStatus string

const (
	VideoStatusActive   VideoStatus = "active"
	VideoStatusBattling VideoStatus = "battling"
	VideoStatusDeleted  VideoStatus = "deleted"
)

type Video struct {
	VideoID     string
	OwnerID     string
	Title       string
	Description string
	Tags        []string
	MediaURL    string
	UploadedAt  time.Time
	Views       int64
	Votes       int64
	Status      VideoStatus
}

func NewVideo(
	videoID string,
	ownerID string,
	title string,
	description string,
	mediaURL string,
	tags []string,
	uploadedAt time.Time,
) (Video, error) {
	normalizedTags := NormalizeTags(tags)
	if strings.TrimSpace(videoID) == "" ||
		strings.TrimSpace(ownerID) == "" ||
		strings.TrimSpace(title) == "" ||
		strings.TrimSpace(mediaURL) == "" ||
		len(normalizedTags) == 0 {
		return Video{}, domainerrors.ErrInvalidVideo
	}
	return Video{
		VideoID:     videoID,
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Tags:        normalizedTags,
		MediaURL:    mediaURL,
		UploadedAt:  uploadedAt.UTC(),
		Status:      VideoStatusActive,
	}, nil
}

// NormalizeTags trims, lower-cases, drops empties and duplicates, and sorts.
// The sorted order is what makes shared-tag selection deterministic.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		value := strings.ToLower(strings.TrimSpace(tag))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		tags = append(tags, value)
	}
	sort.Strings(tags)
	return tags
}

// ParseTagList reads the tags field of an upload form. Web clients send a
// JSON string array; plain forms send a comma separated list.
func ParseTagList(raw string) []string {
	value := strings.TrimSpace(raw)
	if strings.HasPrefix(value, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(value), &tags); err == nil {
			return NormalizeTags(tags)
		}
	}
	return NormalizeTags(strings.Split(value, ","))
}

func (v Video) HasTag(tag string) bool {
	for _, item := range v.Tags {
		if item == tag {
			return true
		}
	}
	return false
}

func (v Video) IsMatchable() bool {
	return v.Status == VideoStatusActive
}

func (v Video) IsDeleted() bool {
	return v.Status == VideoStatusDeleted
}

// SharedTag returns the first tag of a, in sorted order, that b also carries.
func SharedTag(a Video, b Video) (string, bool) {
	for _, tag := range NormalizeTags(a.Tags) {
		if b.HasTag(tag) {
			return tag, true
		}
	}
	return "", false
}

func SharesAnyTag(a Video, b Video) bool {
	_, ok := SharedTag(a, b)
	return ok
}
