package models

import (
	"fmt"
	"strconv"
	"time"
)

// Display label tables shared by the action executor and the response
// generator so the two formatting paths cannot drift apart.

var departmentLabels = map[Department]string{
	DepartmentPhoto:  "Photo",
	DepartmentVideo:  "Video",
	DepartmentWeb:    "Web",
	DepartmentCommon: "Common",
}

var channelLabels = map[Channel]string{
	ChannelDirect:    "Direct",
	ChannelReferral:  "Referral",
	ChannelSNS:       "SNS",
	ChannelWebsite:   "Website",
	ChannelPlatformA: "Platform A",
	ChannelPlatformB: "Platform B",
	ChannelRepeat:    "Repeat",
	ChannelOther:     "Other",
}

var statusLabels = map[SaleStatus]string{
	SaleStatusPaid:   "paid",
	SaleStatusUnpaid: "unpaid",
}

// DepartmentLabel returns the display label for a department.
func DepartmentLabel(d Department) string {
	if label, ok := departmentLabels[d]; ok {
		return label
	}
	return string(d)
}

// ChannelLabel returns the display label for a channel.
func ChannelLabel(c Channel) string {
	if label, ok := channelLabels[c]; ok {
		return label
	}
	return string(c)
}

// StatusLabel returns the display label for a sale status.
func StatusLabel(s SaleStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// FormatYen renders an integer yen amount with the currency symbol and
// thousands separators, e.g. ¥1,500.
func FormatYen(amount int64) string {
	return "¥" + groupDigits(amount)
}

func groupDigits(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > 3 {
		var out []byte
		lead := len(s) % 3
		if lead > 0 {
			out = append(out, s[:lead]...)
		}
		for i := lead; i < len(s); i += 3 {
			if len(out) > 0 {
				out = append(out, ',')
			}
			out = append(out, s[i:i+3]...)
		}
		s = string(out)
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatDateSlash renders a date as Y/M/D without zero padding,
// e.g. 2025/8/29. Used by action confirmation messages.
func FormatDateSlash(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Year(), int(t.Month()), t.Day())
}

// FormatDateKanji renders a date as Y年M月D日, the ledger's display
// convention for query responses.
func FormatDateKanji(t time.Time) string {
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}
