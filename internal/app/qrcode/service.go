/*
Package qrcode turns a user's profile into a scannable PNG code.

Two payload shapes exist: PublicPayload for the unauthenticated lookup by id,
and SelfPayload for the signed-in caller generating their own code. Encoding
is a pure function of the payload, so equal payloads yield identical PNGs.
*/
package qrcode

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	goqrcode "github.com/skip2/go-qrcode"

	"userdash/internal/app/user"
	"userdash/internal/pkg/logx"
)

// ErrEncode wraps any failure to render a payload.
var ErrEncode = errors.New("qr code encoding failed")

const (
	DefaultSize = 256

	pngContentType = "image/png"
	dataURLPrefix  = "data:image/png;base64,"
)

// Code is a rendered QR symbol.
type Code struct {
	PNG     []byte
	DataURL string
}

// Lookup is the result of a public lookup by user id.
type Lookup struct {
	Payload PublicPayload
	Avatar  string
	Code    *Code
}

// Generated is the result of a caller generating their own code.
type Generated struct {
	Payload     SelfPayload
	Code        *Code
	DownloadURL string
}

// Archive stores rendered codes and signs download links for them.
type Archive interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)
}

// Options tunes the Service. A nil Archive disables archiving.
type Options struct {
	Size          int
	PublicBaseURL string
	Archive       Archive
	DownloadTTL   time.Duration
}

type Service struct {
	users       user.Store
	size        int
	profileBase string
	archive     Archive
	downloadTTL time.Duration

	now func() time.Time
}

func NewService(users user.Store, opts Options) *Service {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = 15 * time.Minute
	}

	return &Service{
		users:       users,
		size:        opts.Size,
		profileBase: opts.PublicBaseURL,
		archive:     opts.Archive,
		downloadTTL: opts.DownloadTTL,
		now:         time.Now,
	}
}

// Encode serializes payload as JSON and renders it as a PNG QR code.
func (s *Service) Encode(payload any) (*Code, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	png, err := goqrcode.Encode(string(content), goqrcode.Medium, s.size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &Code{
		PNG:     png,
		DataURL: dataURLPrefix + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// LookupByUserID renders the public code of any user.
func (s *Service) LookupByUserID(ctx context.Context, id string) (*Lookup, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := BuildPublic(u)
	code, err := s.Encode(payload)
	if err != nil {
		return nil, err
	}

	return &Lookup{Payload: payload, Avatar: u.Avatar, Code: code}, nil
}

// Generate renders the caller's own code and, when an archive is configured,
// stores the PNG and returns a time-limited download link.
func (s *Service) Generate(ctx context.Context, callerID string) (*Generated, error) {
	u, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	payload := BuildSelf(u, s.profileBase, s.now())
	code, err := s.Encode(payload)
	if err != nil {
		return nil, err
	}

	out := &Generated{Payload: payload, Code: code}
	if s.archive == nil {
		return out, nil
	}

	// Archive failures leave DownloadURL empty and do not fail the request.
	key := archiveKey(u.ID)
	if err := s.archive.Upload(ctx, key, pngContentType, bytes.NewReader(code.PNG)); err != nil {
		logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to archive qr code")
		return out, nil
	}

	link, err := s.archive.PresignDownload(ctx, key, s.downloadTTL)
	if err != nil {
		logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to presign qr code download")
		return out, nil
	}
	out.DownloadURL = link

	return out, nil
}

func archiveKey(userID string) string {
	return "qrcodes/" + userID + ".png"
}
