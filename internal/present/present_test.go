package present_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontomaint/internal/domain"
	"ontomaint/internal/present"
)

const ns = "http://example.org/ontomaint#"

func ptr(t domain.Term) *domain.Term { return &t }

func impactRows() *domain.ResultSet {
	return &domain.ResultSet{
		Vars: []string{"failure", "machine", "job", "nextJob", "propFailure"},
		Rows: []domain.Row{
			{ptr(domain.IRI(ns + "OverheatingA")), ptr(domain.IRI(ns + "MixerA")), ptr(domain.IRI(ns + "Job1")), nil, nil},
		},
	}
}

func TestPresent_Headers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rs   *domain.ResultSet
		opts present.Options
		want []string
	}{
		{
			name: "projection_vars_when_uniform",
			rs:   impactRows(),
			want: []string{"failure", "machine", "job", "nextJob", "propFailure"},
		},
		{
			name: "catalog_columns_when_width_matches",
			rs:   impactRows(),
			opts: present.Options{Columns: []string{"Failure", "Machine", "Job", "Next job", "Propagates to"}},
			want: []string{"Failure", "Machine", "Job", "Next job", "Propagates to"},
		},
		{
			name: "catalog_columns_ignored_on_mismatch",
			rs:   impactRows(),
			opts: present.Options{Columns: []string{"Failure"}},
			want: []string{"failure", "machine", "job", "nextJob", "propFailure"},
		},
		{
			name: "positional_headers_when_ragged",
			rs: &domain.ResultSet{
				Vars: []string{"a"},
				Rows: []domain.Row{{ptr(domain.IRI(ns + "X")), ptr(domain.IRI(ns + "Y"))}},
			},
			want: []string{"col1", "col2"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, present.Present(tc.rs, tc.opts).Headers)
		})
	}
}

func TestPresent_Cells(t *testing.T) {
	t.Parallel()

	rs := &domain.ResultSet{
		Vars: []string{"m", "temp", "note"},
		Rows: []domain.Row{{
			ptr(domain.IRI(ns + "MixerA")),
			ptr(domain.TypedLiteral("85.5", "http://www.w3.org/2001/XMLSchema#decimal")),
			nil,
		}},
	}

	t.Run("prettified", func(t *testing.T) {
		t.Parallel()
		tbl := present.Present(rs, present.Options{Prettify: true})
		require.Len(t, tbl.Rows, 1)
		assert.Equal(t, []string{"MixerA", "85.5", ""}, tbl.Strings()[0])
		assert.Equal(t, domain.NoneValue, tbl.Rows[0][2].Line())
		assert.Equal(t, "MixerA", tbl.Rows[0][0].Line())
	})

	t.Run("raw", func(t *testing.T) {
		t.Parallel()
		tbl := present.Present(rs, present.Options{})
		assert.Equal(t, ns+"MixerA", tbl.Rows[0][0].Text)
	})

	t.Run("literals_shortened_like_iris", func(t *testing.T) {
		t.Parallel()
		lit := &domain.ResultSet{
			Vars: []string{"m", "line", "plain"},
			Rows: []domain.Row{{ptr(domain.IRI(ns + "MixerA")), ptr(domain.Literal("line/3")), ptr(domain.Literal("Cool down"))}},
		}
		tbl := present.Present(lit, present.Options{Prettify: true})
		assert.Equal(t, []string{"MixerA", "3", "Cool down"}, tbl.Strings()[0])

		raw := present.Present(lit, present.Options{})
		assert.Equal(t, "line/3", raw.Rows[0][1].Text)
	})

	t.Run("nil_result_set", func(t *testing.T) {
		t.Parallel()
		tbl := present.Present(nil, present.Options{})
		assert.True(t, tbl.Empty())
	})
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    present.Format
		wantErr bool
	}{
		{in: "", want: present.FormatTable},
		{in: "table", want: present.FormatTable},
		{in: "json", want: present.FormatJSON},
		{in: "csv", want: present.FormatCSV},
		{in: "yaml", wantErr: true},
	}
	for _, tc := range tests {
		t.Run("format_"+tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := present.ParseFormat(tc.in)
			if tc.wantErr {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	tbl := present.Present(impactRows(), present.Options{Prettify: true})
	var buf bytes.Buffer
	require.NoError(t, present.WriteTable(&buf, tbl, false))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "FAILURE       MACHINE  JOB   NEXTJOB  PROPFAILURE"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "OverheatingA  MixerA   Job1"), lines[1])
}

func TestWrite_EmptyTablePrintsMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tbl := present.Present(&domain.ResultSet{Vars: []string{"failure"}}, present.Options{})
	require.NoError(t, present.Write(&buf, tbl, present.FormatTable))
	assert.Equal(t, present.NoResults+"\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, present.WriteJSON(&buf, present.Present(impactRows(), present.Options{Prettify: true})))

	var got struct {
		Columns []string          `json:"columns"`
		Rows    []map[string]*any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got.Columns, 5)
	require.Len(t, got.Rows, 1)
	assert.Nil(t, got.Rows[0]["nextJob"])
	assert.Equal(t, "MixerA", *got.Rows[0]["machine"])
}

func TestWriteJSON_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, present.WriteJSON(&buf, present.Present(nil, present.Options{})))
	assert.JSONEq(t, `{"columns":[],"rows":[]}`, buf.String())
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, present.Write(&buf, present.Present(impactRows(), present.Options{Prettify: true}), present.FormatCSV))
	assert.Equal(t, "failure,machine,job,nextJob,propFailure\nOverheatingA,MixerA,Job1,,\n", buf.String())
}
