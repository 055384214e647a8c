// SPDX-License-Identifier: MPL-2.0

package graph_test

import (
	"testing"

	"github.com/anvilhoist/monohoist/internal/graph"
	"github.com/anvilhoist/monohoist/internal/model"
	"github.com/stretchr/testify/require"
)

func TestBuild_OneProviderPerRange(t *testing.T) {
	t.Parallel()
	requests := model.DependencyRequests{
		"lodash": {
			"^4.0.0": []string{"/root/modules/a", "/root/modules/b"},
			"^3.0.0": []string{"/root/modules/c"},
		},
	}

	g := graph.Build(requests)
	require.Len(t, g.Providers, 2)
	require.Len(t, g.Requirements, 3)
}

func TestRender_ListsNameRangeAndRequesters(t *testing.T) {
	t.Parallel()
	requests := model.DependencyRequests{
		"lodash": {"^4.0.0": []string{"/root/modules/a"}},
	}

	out := graph.Render(graph.Build(requests))
	require.Contains(t, out, "lodash")
	require.Contains(t, out, "^4.0.0")
	require.Contains(t, out, "/root/modules/a")
}
