package feed

import "sort"

// buildThreads assembles the filtered entries of one page into an ordered
// forest. An entry becomes a child only when its parent URI appears in the
// same page; otherwise it is promoted to a root, which includes replies
// whose parent fell outside this page. Thread structure is reconstructed
// only within each page's entry set.
func buildThreads(entries []*FeedEntry) []*ThreadNode {
	index := make(map[string]*ThreadNode, len(entries))
	nodes := make([]*ThreadNode, 0, len(entries))

	for _, entry := range entries {
		if entry == nil || entry.Post == nil {
			continue
		}
		node := &ThreadNode{Entry: entry}
		index[entry.Post.URI] = node
		nodes = append(nodes, node)
	}

	var roots []*ThreadNode
	for _, node := range nodes {
		reply := node.Entry.Post.Reply
		if reply != nil {
			if parent, ok := index[reply.ParentURI]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		node.IsRoot = true
		roots = append(roots, node)
	}

	// Newest roots first, matching feed reading order. Stable sorts keep
	// the API's own ordering as the tiebreak.
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].Entry.Post.IndexedAt.After(roots[j].Entry.Post.IndexedAt)
	})

	for _, root := range roots {
		sortChildren(root)
	}
	return roots
}

// sortChildren orders replies chronologically ascending, recursively.
func sortChildren(node *ThreadNode) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		return node.Children[i].Entry.Post.IndexedAt.Before(node.Children[j].Entry.Post.IndexedAt)
	})
	for _, child := range node.Children {
		sortChildren(child)
	}
}
