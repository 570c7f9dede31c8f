package session

import (
	"fmt"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

// AppendPage は次の連番を採番して確定ページを追加します。
func (s *Session) AppendPage(imageData []byte, mimeType, storyText, prompt string, mode domain.PageMode) domain.Page {
	page := domain.NewPage(len(s.Pages)+1, imageData, mimeType, storyText, prompt, mode)
	s.Pages = append(s.Pages, page)
	return page
}

// DeletePage はページを削除し、後続ページの番号を1始まりの連番に振り直します。
func (s *Session) DeletePage(id string) error {
	idx := -1
	for i, p := range s.Pages {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("ページID %s が見つかりません", id)
	}
	s.Pages = append(s.Pages[:idx], s.Pages[idx+1:]...)
	for i := range s.Pages {
		s.Pages[i].Number = i + 1
	}
	if s.ContextPageID == id {
		s.ContextPageID = ""
	}
	return nil
}

// ReplacePageImage は確定ページの画像を差し替えます（事後の編集・拡張用）。
// 画像以外のフィールドは不変のままです。
func (s *Session) ReplacePageImage(id string, imageData []byte, mimeType string, mode domain.PageMode) error {
	for i := range s.Pages {
		if s.Pages[i].ID == id {
			s.Pages[i].ImageData = imageData
			s.Pages[i].MimeType = mimeType
			s.Pages[i].Mode = mode
			return nil
		}
	}
	return fmt.Errorf("ページID %s が見つかりません", id)
}

// FindPage はIDからページを検索します。
func (s *Session) FindPage(id string) (domain.Page, bool) {
	for _, p := range s.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Page{}, false
}
