package mail

import (
	"fmt"
	"strings"
	"time"

	"github.com/ggonsajang/comcard/internal/report"
)

const divider = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Notices shown to the user around an export.
const (
	NoticeNoData         = "내보낼 데이터가 없습니다."
	NoticeExportFailed   = "엑셀 파일 생성 중 오류가 발생했습니다."
	NoticeDownloaded     = "엑셀 파일이 다운로드되었습니다."
	NoticeAttachReminder = "엑셀 파일이 다운로드되었습니다.\n메일 작성 창이 열리면 다운로드된 파일을 첨부해서 보내주세요."
)

// Submission is the draft sent to the approver after an interactive export.
func Submission(to string, r report.Report, filename string) Message {
	var body strings.Builder
	body.WriteString("법인카드 사용내역 엑셀 파일을 첨부하여 송부합니다.\n\n")
	body.WriteString(r.PlainText())
	body.WriteString("\n\n")
	fmt.Fprintf(&body, "(다운로드된 엑셀 파일 \"%s\"을(를) 첨부해주세요.)", filename)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("법인카드 사용내역 송부 (%s)", r.Title),
		Body:    body.String(),
	}
}

// Backup is the draft addressed to the backup recipient after a write.
func Backup(to string, year int, month time.Month, r report.Report, filename string) Message {
	body := fmt.Sprintf(`%d년 %d월 법인카드 사용내역

📊 %s

%s

📎 첨부 파일 사용 방법:

1. 다운로드 폴더에서 "%s" 파일 찾기
2. 파일을 더블클릭하여 엑셀로 열기
3. 또는 이 메일에 파일을 첨부하여 발송

%s

※ ComCard 자동 백업 시스템`, year, int(month), r.Summary(), divider, filename, divider)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("[ComCard 백업] %d년 %d월 법인카드 내역", year, int(month)),
		Body:    body,
	}
}
