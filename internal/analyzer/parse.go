package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/coregx/sqldialect/internal/dialects"
)

// ErrEmptyPlan is returned when explain produced no rows.
var ErrEmptyPlan = errors.New("analyzer: empty explain output")

func parse(style dialects.ExplainStyle, rows []row) (*Plan, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyPlan
	}
	plan := &Plan{RawOutput: rawOutput(rows)}
	switch style {
	case dialects.ExplainJSON:
		if err := parseJSON(rows[0].vals[0], plan); err != nil {
			return nil, err
		}
	case dialects.ExplainTabular:
		for _, r := range rows {
			parseTabularRow(r, plan)
		}
	case dialects.ExplainQueryPlan:
		for _, r := range rows {
			parseQueryPlanLine(r.last(), plan)
		}
	case dialects.ExplainText:
		for _, r := range rows {
			for _, line := range strings.Split(r.vals[0], "\n") {
				parseTextLine(line, plan)
			}
		}
	default:
		return nil, fmt.Errorf("analyzer: no parser for explain style %s", style)
	}
	return plan, nil
}

func rawOutput(rows []row) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r.vals, "\t")
	}
	return strings.Join(lines, "\n")
}

func (p *Plan) addTable(name string) {
	if name != "" && !slices.Contains(p.Tables, name) {
		p.Tables = append(p.Tables, name)
	}
}

func (p *Plan) useIndex(name string) {
	p.UsesIndex = true
	if p.IndexName == "" {
		p.IndexName = name
	}
}

// jsonNode is a plan node of "explain (format json)" output.
type jsonNode struct {
	NodeType     string     `json:"Node Type"`
	RelationName string     `json:"Relation Name"`
	IndexName    string     `json:"Index Name"`
	TotalCost    float64    `json:"Total Cost"`
	PlanRows     int64      `json:"Plan Rows"`
	Plans        []jsonNode `json:"Plans"`
}

func parseJSON(raw string, plan *Plan) error {
	var roots []struct {
		Plan jsonNode `json:"Plan"`
	}
	if err := json.Unmarshal([]byte(raw), &roots); err != nil {
		return fmt.Errorf("analyzer: malformed explain JSON: %w", err)
	}
	if len(roots) == 0 {
		return ErrEmptyPlan
	}
	root := roots[0].Plan
	plan.Cost = root.TotalCost
	plan.EstimatedRows = root.PlanRows
	walkJSON(&root, plan)
	return nil
}

func walkJSON(n *jsonNode, plan *Plan) {
	switch {
	case strings.Contains(n.NodeType, "Index Scan"), strings.Contains(n.NodeType, "Index Only Scan"):
		plan.useIndex(n.IndexName)
	case n.NodeType == "Seq Scan":
		plan.FullScan = true
	}
	plan.addTable(n.RelationName)
	for i := range n.Plans {
		walkJSON(&n.Plans[i], plan)
	}
}

// parseTabularRow reads one row of a table-per-row explain: an access
// type of ALL is a full scan, a non-empty key an index.
func parseTabularRow(r row, plan *Plan) {
	plan.addTable(r.get("table"))
	if strings.EqualFold(r.get("type"), "ALL") {
		plan.FullScan = true
	}
	if key := r.get("key"); key != "" {
		plan.useIndex(key)
	}
	if n, err := strconv.ParseInt(r.get("rows"), 10, 64); err == nil {
		plan.EstimatedRows += n
	}
}

// parseQueryPlanLine reads one "explain query plan" detail, e.g.
// "SCAN users" or "SEARCH users USING INDEX users_email (email=?)".
func parseQueryPlanLine(detail string, plan *Plan) {
	upper := strings.ToUpper(strings.TrimSpace(detail))
	fields := strings.Fields(detail)

	if len(fields) >= 2 && (fields[0] == "SCAN" || fields[0] == "SEARCH") {
		name := fields[1]
		if strings.EqualFold(name, "TABLE") && len(fields) >= 3 {
			name = fields[2]
		}
		plan.addTable(name)
	}

	switch {
	case strings.Contains(upper, "USING COVERING INDEX "):
		plan.useIndex(wordAfter(detail, "USING COVERING INDEX "))
	case strings.Contains(upper, "USING INDEX "):
		plan.useIndex(wordAfter(detail, "USING INDEX "))
	case strings.Contains(upper, "USING INTEGER PRIMARY KEY"), strings.Contains(upper, "USING PRIMARY KEY"):
		plan.useIndex("PRIMARY KEY")
	case strings.Contains(upper, "USING AUTOMATIC"):
		plan.useIndex("AUTOMATIC INDEX")
	case strings.HasPrefix(upper, "SCAN ") && !strings.Contains(upper, "USING"):
		plan.FullScan = true
	}
}

var (
	// "table: users@users_email"
	textTable = regexp.MustCompile(`table:\s*([\w.]+)@([\w.]+)`)
	// "estimated row count: 12"
	textRows = regexp.MustCompile(`estimated row count:\s*([\d,]+)`)
	// "/* PUBLIC.USERS.tableScan */"
	commentScan = regexp.MustCompile(`/\*\s*([\w."]+)\.tableScan\s*\*/`)
	// "/* PUBLIC.USERS_EMAIL: EMAIL = ?1 */"
	commentIndex = regexp.MustCompile(`/\*\s*([\w."]+):`)
)

// parseTextLine reads one line of a free-text plan.
func parseTextLine(line string, plan *Plan) {
	if m := textTable.FindStringSubmatch(line); m != nil {
		plan.addTable(m[1])
		plan.useIndex(m[2])
	}
	if strings.Contains(strings.ToUpper(line), "FULL SCAN") {
		plan.FullScan = true
	}
	if m := textRows.FindStringSubmatch(line); m != nil {
		if n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64); err == nil && plan.EstimatedRows == 0 {
			plan.EstimatedRows = n
		}
	}
	if m := commentScan.FindStringSubmatch(line); m != nil {
		plan.FullScan = true
		plan.addTable(lastSegment(m[1]))
		return
	}
	if m := commentIndex.FindStringSubmatch(line); m != nil {
		plan.useIndex(lastSegment(m[1]))
	}
}

// wordAfter returns the word following marker in s, matched case
// insensitively. It stops at whitespace or an opening parenthesis.
func wordAfter(s, marker string) string {
	i := strings.Index(strings.ToUpper(s), marker)
	if i < 0 {
		return ""
	}
	rest := strings.TrimSpace(s[i+len(marker):])
	if end := strings.IndexAny(rest, " ("); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func lastSegment(name string) string {
	name = strings.ReplaceAll(name, `"`, "")
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
