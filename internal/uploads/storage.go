// Package uploads は顔写真アップロードの一時保存と本保存を扱う。
package uploads

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

const MaxImageBytes = 10 << 20

var (
	ErrNotImage = errors.New("only image files are allowed")
	ErrTooLarge = errors.New("image exceeds 10MB")
)

type Storage struct {
	Dir       string // 本保存先
	TempDir   string // 照合用の一時置き場
	PublicURL string // Dir を公開する URL プレフィックス
}

func New(dir, tempDir, publicURL string) (*Storage, error) {
	for _, d := range []string{dir, tempDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("アップロード先の作成に失敗: %w", err)
		}
	}
	return &Storage{Dir: dir, TempDir: tempDir, PublicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

// TempFile: リクエスト単位の一時ファイル。Release は何度呼んでもよい
type TempFile struct {
	Path string
	Ext  string
}

func (t *TempFile) Release() {
	if t == nil || t.Path == "" {
		return
	}
	if err := os.Remove(t.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		// 残骸は janitor が後で拾う
		log.Printf("[WARN] temp file cleanup failed: %v", err)
	}
}

// SaveTemp: multipart のファイルを TempDir に ULID 名で保存する
func (s *Storage) SaveTemp(fh *multipart.FileHeader) (*TempFile, error) {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return nil, ErrNotImage
	}
	if fh.Size > MaxImageBytes {
		return nil, ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := "face_photo-" + ulid.Make().String() + ext
	p := filepath.Join(s.TempDir, name)

	dst, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	tmp := &TempFile{Path: p, Ext: ext}
	if _, err := io.Copy(dst, io.LimitReader(src, MaxImageBytes+1)); err != nil {
		dst.Close()
		tmp.Release()
		return nil, err
	}
	if err := dst.Close(); err != nil {
		tmp.Release()
		return nil, err
	}
	return tmp, nil
}

// Persist: 一時ファイルを本保存先へ移し、公開 URL を返す
func (s *Storage) Persist(t *TempFile, baseName string) (string, error) {
	name := baseName + t.Ext
	if err := os.Rename(t.Path, filepath.Join(s.Dir, name)); err != nil {
		return "", err
	}
	t.Path = ""
	return s.PublicURL + "/" + name, nil
}

// Remove: Persist で返した URL のファイルを消す。既に無ければ何もしない
func (s *Storage) Remove(url string) error {
	if !strings.HasPrefix(url, s.PublicURL+"/") {
		return nil
	}
	name := path.Base(url)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
