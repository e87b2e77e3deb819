// Package snapshot 用 DuckDB 读取离线产出的 parquet/csv 快照。
//
// 支持的文件：
//   - 商品表：itemid, property, value_length, depth
//   - 行为表：visitorid, itemid, event（可选 timestamp 与数值特征列）
//   - 排序特征表：visitorid, itemid（可选 label 与数值特征列）
//
// 数值特征列按列名进入 Features；非数值列被忽略，NULL 视为缺失。
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/conv"
	"github.com/rushteam/hybridrec/pkg/logging"
)

// Loader 持有一个内存 DuckDB 连接，只用来扫描文件。
type Loader struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open 打开内存 DuckDB。
func Open() (*Loader, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, core.Errorf(core.ModuleSnapshot, core.ErrorCodeUnavailable, "snapshot: open duckdb: %v", err)
	}
	return &Loader{db: db, log: logging.Component("snapshot")}, nil
}

func (l *Loader) Close() error {
	return l.db.Close()
}

// table 是一次扫描的结果：列名与逐行值。
type table struct {
	path    string
	columns []string
	numeric map[string]bool
	rows    [][]any
}

func (t *table) require(cols ...string) error {
	have := make(map[string]bool, len(t.columns))
	for _, c := range t.columns {
		have[c] = true
	}
	for _, c := range cols {
		if !have[c] {
			return core.Errorf(core.ModuleSnapshot, core.ErrorCodeInvalidInput,
				"snapshot: %s: missing required column %q", t.path, c)
		}
	}
	return nil
}

func (t *table) index() map[string]int {
	m := make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		m[c] = i
	}
	return m
}

// features 收集 reserved 之外的数值列。
func (t *table) features(row []any, reserved map[string]bool) map[string]float64 {
	out := make(map[string]float64)
	for i, c := range t.columns {
		if reserved[c] || !t.numeric[c] {
			continue
		}
		if f, ok := toFloat(row[i]); ok {
			out[c] = f
		}
	}
	return out
}

// sourceExpr 按扩展名选择 DuckDB 表函数。
func sourceExpr(path string) (string, error) {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return "read_parquet(" + quoted + ")", nil
	case ".csv", ".tsv":
		return "read_csv_auto(" + quoted + ")", nil
	case ".json", ".jsonl", ".ndjson":
		return "read_json_auto(" + quoted + ")", nil
	default:
		return "", core.Errorf(core.ModuleSnapshot, core.ErrorCodeNotSupported,
			"snapshot: unsupported file type %q", path)
	}
}

func (l *Loader) scan(ctx context.Context, path string) (*table, error) {
	src, err := sourceExpr(path)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx, "SELECT * FROM "+src)
	if err != nil {
		return nil, core.Errorf(core.ModuleSnapshot, core.ErrorCodeUnavailable, "snapshot: read %s: %v", path, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("snapshot: column types %s: %w", path, err)
	}
	t := &table{path: path, numeric: make(map[string]bool, len(types))}
	for _, ct := range types {
		name := strings.ToLower(ct.Name())
		t.columns = append(t.columns, name)
		t.numeric[name] = isNumericType(ct.DatabaseTypeName())
	}

	for rows.Next() {
		vals := make([]any, len(t.columns))
		ptrs := make([]any, len(t.columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("snapshot: scan %s: %w", path, err)
		}
		t.rows = append(t.rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: iterate %s: %w", path, err)
	}
	return t, nil
}

func isNumericType(name string) bool {
	name = strings.ToUpper(name)
	switch {
	case strings.HasPrefix(name, "DECIMAL"):
		return true
	case strings.Contains(name, "INT"), name == "DOUBLE", name == "FLOAT", name == "REAL", name == "BOOLEAN":
		return !strings.Contains(name, "INTERVAL")
	default:
		return false
	}
}

// toFloat 额外支持 DuckDB 的 Decimal 等带 Float64() 的类型。
func toFloat(v any) (float64, bool) {
	if f, ok := conv.ToFloat64(v); ok {
		return f, true
	}
	if d, ok := v.(interface{ Float64() float64 }); ok {
		return d.Float64(), true
	}
	return 0, false
}

func toID(v any) (int64, bool) {
	if id, ok := conv.ToInt64(v); ok {
		return id, true
	}
	if f, ok := toFloat(v); ok && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}

// LoadItems 按文件行序读取商品表，行号即稠密下标。
func (l *Loader) LoadItems(ctx context.Context, path string) ([]core.Item, error) {
	t, err := l.scan(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := t.require("itemid"); err != nil {
		return nil, err
	}
	col := t.index()

	items := make([]core.Item, 0, len(t.rows))
	for i, row := range t.rows {
		id, ok := toID(row[col["itemid"]])
		if !ok {
			return nil, core.Errorf(core.ModuleSnapshot, core.ErrorCodeInvalidInput,
				"snapshot: %s row %d: invalid itemid %v", path, i, row[col["itemid"]])
		}
		it := core.Item{ID: id}
		if c, ok := col["property"]; ok && row[c] != nil {
			if s, ok := conv.ToString(row[c]); ok {
				it.Property = s
			} else {
				it.Property = fmt.Sprint(row[c])
			}
		}
		if c, ok := col["value_length"]; ok {
			it.ValueLength, _ = toFloat(row[c])
		}
		if c, ok := col["depth"]; ok {
			if d, ok := toID(row[c]); ok {
				it.Depth = int(d)
			}
		}
		items = append(items, it)
	}
	l.log.Info().Str("path", path).Int("items", len(items)).Msg("items loaded")
	return items, nil
}

var eventReserved = map[string]bool{"visitorid": true, "itemid": true, "event": true, "timestamp": true}

// LoadEvents 读取行为表。事件类型无法识别的行被跳过并计数。
func (l *Loader) LoadEvents(ctx context.Context, path string) ([]core.EventRecord, error) {
	t, err := l.scan(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := t.require("visitorid", "itemid", "event"); err != nil {
		return nil, err
	}
	col := t.index()
	tsCol, hasTS := col["timestamp"]

	events := make([]core.EventRecord, 0, len(t.rows))
	skipped := 0
	for i, row := range t.rows {
		vid, ok1 := toID(row[col["visitorid"]])
		iid, ok2 := toID(row[col["itemid"]])
		if !ok1 || !ok2 {
			return nil, core.Errorf(core.ModuleSnapshot, core.ErrorCodeInvalidInput,
				"snapshot: %s row %d: invalid visitorid/itemid", path, i)
		}
		raw, _ := conv.ToString(row[col["event"]])
		kind, ok := core.ParseEventKind(raw)
		if !ok {
			skipped++
			continue
		}
		ev := core.EventRecord{
			VisitorID: vid,
			ItemID:    iid,
			Event:     kind,
			Features:  t.features(row, eventReserved),
		}
		if hasTS {
			ev.Timestamp = toTime(row[tsCol])
		}
		events = append(events, ev)
	}
	if skipped > 0 {
		l.log.Warn().Str("path", path).Int("skipped", skipped).Msg("events with unknown kind skipped")
	}
	l.log.Info().Str("path", path).Int("events", len(events)).Msg("events loaded")
	return events, nil
}

var rankerReserved = map[string]bool{"visitorid": true, "itemid": true, "label": true}

// LoadRankerRows 读取排序特征表；label、visitorid、itemid 不进入特征。
func (l *Loader) LoadRankerRows(ctx context.Context, path string) ([]core.RankerFeatureRow, error) {
	t, err := l.scan(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := t.require("visitorid", "itemid"); err != nil {
		return nil, err
	}
	col := t.index()
	labelCol, hasLabel := col["label"]

	out := make([]core.RankerFeatureRow, 0, len(t.rows))
	for i, row := range t.rows {
		vid, ok1 := toID(row[col["visitorid"]])
		iid, ok2 := toID(row[col["itemid"]])
		if !ok1 || !ok2 {
			return nil, core.Errorf(core.ModuleSnapshot, core.ErrorCodeInvalidInput,
				"snapshot: %s row %d: invalid visitorid/itemid", path, i)
		}
		r := core.RankerFeatureRow{
			VisitorID: vid,
			ItemID:    iid,
			Features:  t.features(row, rankerReserved),
		}
		if hasLabel {
			r.Label, _ = toFloat(row[labelCol])
		}
		out = append(out, r)
	}
	l.log.Info().Str("path", path).Int("rows", len(out)).Msg("ranker rows loaded")
	return out, nil
}

// toTime 支持 TIMESTAMP 列、毫秒时间戳与常见字符串格式。
func toTime(v any) time.Time {
	switch val := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return val
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, val); err == nil {
				return ts
			}
		}
		if ms, ok := conv.ToInt64(val); ok {
			return time.UnixMilli(ms).UTC()
		}
		return time.Time{}
	}
	if ms, ok := conv.ToInt64(v); ok {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
