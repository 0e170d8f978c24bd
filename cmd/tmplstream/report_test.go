package main

import (
	"context"
	"strings"
	"testing"

	"github.com/pthm/tmplstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportComponent(t *testing.T) {
	result, err := tmplstream.TestRender[reportProps](reportComponent{}, reportProps{Title: "T", Rows: 3})
	require.NoError(t, err)

	assert.True(t, result.TextContainsAll(
		"<title>T</title>",
		"<tr><td>1</td><td>item-001</td><td>9.25</td></tr>",
		"<tr><td>3</td><td>item-003</td>",
		"<p>3 rows, generated in ",
	), result.Text)
	assert.Equal(t, 3, strings.Count(result.Text, "<tr><td>"))
	assert.True(t, strings.HasSuffix(result.Text, "</footer></body></html>"))
}

func TestReportComponent_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := tmplstream.RenderComponent[reportProps](ctx, reportComponent{}, reportProps{Title: "T", Rows: 1000})
	defer s.Close()

	_, err := s.Next()
	require.NoError(t, err)
	cancel()

	_, err = s.ReadAll()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportLinks(t *testing.T) {
	reg := tmplstream.NewRegistry([]byte("test"))
	report := tmplstream.NewComponent[reportProps]("report", reportComponent{})
	reg.Add(report)

	links, err := reportLinks(report)
	require.NoError(t, err)
	require.Len(t, links, 3)

	result, err := tmplstream.TestRenderTemplate(indexLit.With(links))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(result.Text, report.Prefix()+"/?p="))
}
