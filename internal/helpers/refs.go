package helpers

import (
	"errors"
	"fmt"

	"github.com/speps/go-hashids/v2"
)

var ErrInvalidRef = errors.New("invalid reference")

// refAlphabet has no digits, so a ref never looks like a numeric ID.
const refAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RefCodec turns numeric review IDs into short opaque references for URLs
// and back.
type RefCodec struct {
	h *hashids.HashID
}

func NewRefCodec(salt string, minLength int) (*RefCodec, error) {
	hd := hashids.NewData()
	hd.Alphabet = refAlphabet
	hd.Salt = salt
	hd.MinLength = minLength
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashids: %w", err)
	}
	return &RefCodec{h: h}, nil
}

func (c *RefCodec) Encode(id int64) (string, error) {
	return c.h.EncodeInt64([]int64{id})
}

// Decode accepts only references this codec could have produced.
func (c *RefCodec) Decode(ref string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(ref)
	if err != nil || len(ids) != 1 || ids[0] <= 0 {
		return 0, ErrInvalidRef
	}
	return ids[0], nil
}
