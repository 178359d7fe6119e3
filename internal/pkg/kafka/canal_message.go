package kafka

import (
	"strconv"
	"time"
)

// canal 事件类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// canal 输出的 DATETIME 格式，按本地时区解释
const canalTimeLayout = "2006-01-02 15:04:05"

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`

	// Data 变更后的行，flatMessage 模式下所有值都是字符串或 null
	Data []map[string]interface{} `json:"data"`

	// Old 变更前被修改的列
	Old []map[string]interface{} `json:"old"`
}

func StrToString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func StrToUint64(v interface{}) uint64 {
	n, err := strconv.ParseUint(StrToString(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// StrToUint64Ptr NULL 列返回 nil
func StrToUint64Ptr(v interface{}) *uint64 {
	if v == nil || StrToString(v) == "" {
		return nil
	}
	n := StrToUint64(v)
	return &n
}

func StrToInt8(v interface{}) int8 {
	n, err := strconv.ParseInt(StrToString(v), 10, 8)
	if err != nil {
		return 0
	}
	return int8(n)
}

func StrToDateTime(v interface{}) time.Time {
	s := StrToString(v)
	if s == "" {
		return time.Time{}
	}
	// DATETIME(3) 带毫秒
	if len(s) > len(canalTimeLayout) {
		if t, err := time.ParseInLocation(canalTimeLayout+".000", s, time.Local); err == nil {
			return t
		}
	}
	t, err := time.ParseInLocation(canalTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func StrToDateTimePtr(v interface{}) *time.Time {
	t := StrToDateTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}
