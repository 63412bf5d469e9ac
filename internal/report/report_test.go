package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/chokepoint/internal/model"
)

func overloadResult() *model.OverloadResult {
	return &model.OverloadResult{
		Overloaded: []model.LinkLoad{
			{LinkID: 1, FromNodeID: 10, ToNodeID: 11, Capacity: 1000, Volume: 1500, Utilization: 1.5, Overloaded: true},
			{LinkID: 2, FromNodeID: 10, ToNodeID: 12, Capacity: 1000, Volume: 1500, Utilization: 1.5, Overloaded: true},
		},
		CriticalNodes: []model.CriticalNode{{NodeID: 10, OverloadedCount: 2}},
	}
}

func proximityResult() *model.ProximityResult {
	return &model.ProximityResult{Nodes: []model.NodeProximity{
		{NodeID: 3, Degree: 4, ZoneArea: 12.5, POICount: 2},
	}}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"CSV", FormatCSV},
		{" json ", FormatJSON},
		{"yaml", FormatYAML},
		{"xlsx", FormatXLSX},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("parquet")
	assert.ErrorContains(t, err, "unknown format")
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Overload(overloadResult()), FormatTable))

	out := buf.String()
	assert.Contains(t, out, "Overloaded Links (Utilization > 1):")
	assert.Contains(t, out, "Critical Nodes (Connected to Multiple Overloaded Links):")
	assert.Contains(t, out, "link_id")
	assert.Contains(t, out, "utilization")
	assert.Contains(t, out, "overloaded_count")
	assert.Contains(t, out, "1.5")
	assert.Less(t, strings.Index(out, "Overloaded Links"), strings.Index(out, "Critical Nodes"))
}

func TestWrite_TableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Overload(&model.OverloadResult{}), FormatTable))
	assert.Equal(t, 2, strings.Count(buf.String(), "(none)"))
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Proximity(proximityResult()), FormatCSV))
	assert.Equal(t, "node_id,degree,zone_area,poi_count\n3,4,12.5,2\n", buf.String())
}

func TestWrite_CSVSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Overload(overloadResult()), FormatCSV))

	parts := strings.Split(buf.String(), "\n\n")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[0], "link_id,from_node_id,to_node_id,utilization\n1,10,11,1.5\n"))
	assert.Equal(t, "from_node_id,overloaded_count\n10,2\n", parts[1])
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Overload(overloadResult()), FormatJSON))

	var doc struct {
		Links []OverloadedLinkRow `json:"overloaded_links"`
		Nodes []CriticalNodeRow   `json:"critical_nodes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Links, 2)
	assert.Equal(t, 1.5, doc.Links[0].Utilization)
	assert.Equal(t, []CriticalNodeRow{{FromNodeID: 10, OverloadedCount: 2}}, doc.Nodes)
}

func TestWrite_JSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Proximity(nil), FormatJSON))
	assert.JSONEq(t, `{"critical_nodes": []}`, buf.String())
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Proximity(proximityResult()), FormatYAML))

	var doc map[string][]ProximityRow
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []ProximityRow{{NodeID: 3, Degree: 4, ZoneArea: 12.5, POICount: 2}}, doc["critical_nodes"])
}

func TestWrite_XLSXNeedsPath(t *testing.T) {
	var buf bytes.Buffer
	err := Emit(&buf, Proximity(proximityResult()), FormatXLSX, "")
	assert.ErrorContains(t, err, "requires an output path")
}

func TestSave_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Emit(nil, Overload(overloadResult()), FormatXLSX, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	links := f.Sheet["overloaded_links"]
	require.NotNil(t, links)
	require.Len(t, links.Rows, 3)
	assert.Equal(t, "link_id", links.Rows[0].Cells[0].String())
	assert.Equal(t, "1.5", links.Rows[1].Cells[3].String())

	nodes := f.Sheet["critical_nodes"]
	require.NotNil(t, nodes)
	assert.Equal(t, "10", nodes.Rows[1].Cells[0].String())
}

func TestSave_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, Emit(nil, Proximity(proximityResult()), FormatCSV, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "3,4,12.5,2")
}
