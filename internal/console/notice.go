package console

import "time"

// NoticeKind classifies a notification.
type NoticeKind string

// Notification kinds.
const (
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
)

const maxNotices = 5

// Notice is a transient message shown to the user.
type Notice struct {
	ID      uint64
	Kind    NoticeKind
	Message string
	At      time.Time
}

// notify appends a notice, dropping the oldest beyond maxNotices. Callers hold p.mu.
func (p *Panel) notify(kind NoticeKind, msg string) {
	p.noticeSeq++
	p.notices = append(p.notices, Notice{ID: p.noticeSeq, Kind: kind, Message: msg, At: p.now()})
	if len(p.notices) > maxNotices {
		p.notices = append([]Notice(nil), p.notices[len(p.notices)-maxNotices:]...)
	}
}

// Dismiss removes a notice.
func (p *Panel) Dismiss(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, n := range p.notices {
		if n.ID == id {
			p.notices = append(p.notices[:i:i], p.notices[i+1:]...)
			return
		}
	}
}
