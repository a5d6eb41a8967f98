package loans

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200

	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

type ListQuery struct {
	StudentID string
	BookID    string
	Limit     int
	Offset    int
}

type ListResponse struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

// Service は保存済みの貸出ログを読むだけ（書き込みはフォーム経由のみ）
type Service struct {
	log *Log
}

func NewService(log *Log) *Service {
	return &Service{log: log}
}

// List filters by exact student/book id and pages in insertion order.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResponse, error) {
	if q.Offset < 0 {
		return ListResponse{}, ErrInvalid("offset must be >= 0")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}

	all, err := s.log.Read(ctx)
	if err != nil {
		return ListResponse{}, ErrInternal(err.Error())
	}

	matched := make([]Record, 0, len(all))
	for _, r := range all {
		if q.StudentID != "" && r.Student.ID != q.StudentID {
			continue
		}
		if q.BookID != "" && r.Book.ID != q.BookID {
			continue
		}
		matched = append(matched, r)
	}

	res := ListResponse{Items: []Record{}, Total: len(matched)}
	if q.Offset >= len(matched) {
		return res, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	res.Items = matched[q.Offset:end]
	return res, nil
}

// ExportCSV writes every record as a flattened CSV row with a header line.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, encoding string) error {
	enc, err := csvEncoder(encoding)
	if err != nil {
		return err
	}
	all, err := s.log.Read(ctx)
	if err != nil {
		return ErrInternal(err.Error())
	}
	return WriteCSV(w, enc, FlattenAll(all))
}

// WriteCSV: カンマ区切り・ダブルクォート自動。tr が nil なら UTF-8 のまま。
func WriteCSV(w io.Writer, tr transform.Transformer, rows []Row) error {
	var tw io.Writer = w
	var closer io.Closer
	if tr != nil {
		t := transform.NewWriter(w, tr)
		tw, closer = t, t
	}

	cw := csv.NewWriter(tw)
	if err := cw.Write(RowHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if closer != nil {
		return closer.Close()
	}
	return nil
}

// CanonicalEncoding maps an encoding name or alias (utf8, cp1252, any case)
// to EncodingUTF8 or EncodingWindows1252. Empty means UTF-8.
func CanonicalEncoding(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return EncodingUTF8, nil
	case EncodingWindows1252, "cp1252":
		return EncodingWindows1252, nil
	default:
		return "", ErrInvalid("encoding must be utf-8 or windows-1252")
	}
}

func csvEncoder(name string) (transform.Transformer, error) {
	canon, err := CanonicalEncoding(name)
	if err != nil {
		return nil, err
	}
	if canon == EncodingWindows1252 {
		// Excel (es-ES) の既定 ANSI。表現できない文字はエラーにせず置換する
		return encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()), nil
	}
	return nil, nil
}
