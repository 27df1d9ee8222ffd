package repositories

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire layout of a stored post. Field numbers must never be reused.
const (
	fieldID        protowire.Number = 1
	fieldAuthor    protowire.Number = 2
	fieldContent   protowire.Number = 3
	fieldTimestamp protowire.Number = 4
)

func marshalPost(post DiskPost) []byte {
	b := make([]byte, 0, 24+len(post.Author)+len(post.Content))
	b = protowire.AppendTag(b, fieldID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(post.ID))
	b = protowire.AppendTag(b, fieldAuthor, protowire.BytesType)
	b = protowire.AppendString(b, post.Author)
	b = protowire.AppendTag(b, fieldContent, protowire.BytesType)
	b = protowire.AppendString(b, post.Content)
	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(post.Timestamp.UnixNano()))
	return b
}

// unmarshalPost skips unknown fields so that older binaries can read newer records.
func unmarshalPost(b []byte) (DiskPost, error) {
	var (
		post  DiskPost
		nanos int64
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return DiskPost{}, fmt.Errorf("decode post tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return DiskPost{}, fmt.Errorf("decode post id: %w", protowire.ParseError(n))
			}
			post.ID = int64(v)
			b = b[n:]
		case num == fieldAuthor && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return DiskPost{}, fmt.Errorf("decode post author: %w", protowire.ParseError(n))
			}
			post.Author = v
			b = b[n:]
		case num == fieldContent && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return DiskPost{}, fmt.Errorf("decode post content: %w", protowire.ParseError(n))
			}
			post.Content = v
			b = b[n:]
		case num == fieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return DiskPost{}, fmt.Errorf("decode post timestamp: %w", protowire.ParseError(n))
			}
			nanos = int64(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return DiskPost{}, fmt.Errorf("skip field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if post.ID == 0 {
		return DiskPost{}, fmt.Errorf("decode post: missing id")
	}
	post.Timestamp = time.Unix(0, nanos).UTC()
	return post, nil
}
