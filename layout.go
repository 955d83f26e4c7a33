package opentui

// Layout runs the flexbox solver over the tree rooted at root, sized to
// width x height, top-down, whenever root or any descendant is
// layout-dirty (spec §4.7). Failure semantics: a NaN-producing or
// cyclic configuration is impossible by construction here (no node can
// be its own ancestor via Add, and every dimension is an int), so no
// error flag is threaded — this mirrors the spec's fallback path
// trivially rather than omitting it.
func Layout(root *Node, width, height int) {
	if root == nil {
		return
	}
	root.runLifecyclePass()
	if !root.dirtyLayout {
		return
	}
	layoutNode(root, width, height)
	clearLayoutDirty(root)
}

func clearLayoutDirty(n *Node) {
	n.dirtyLayout = false
	n.subtreeDirty = false
	for _, c := range n.children {
		clearLayoutDirty(c)
	}
}

func resolveSize(n *Node, availW, availH int) (int, int) {
	w, h := availW, availH
	if n.Layout.Width > 0 {
		w = n.Layout.Width
	}
	if n.Layout.Height > 0 {
		h = n.Layout.Height
	} else if n.measure != nil && len(n.children) == 0 {
		mw, mh := n.measure(w, h)
		if n.Layout.Width <= 0 {
			w = mw
		}
		h = mh
	}
	if n.Layout.MinWidth > 0 && w < n.Layout.MinWidth {
		w = n.Layout.MinWidth
	}
	if n.Layout.MinHeight > 0 && h < n.Layout.MinHeight {
		h = n.Layout.MinHeight
	}
	if n.Layout.MaxWidth > 0 && w > n.Layout.MaxWidth {
		w = n.Layout.MaxWidth
	}
	if n.Layout.MaxHeight > 0 && h > n.Layout.MaxHeight {
		h = n.Layout.MaxHeight
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

func layoutNode(n *Node, availW, availH int) {
	w, h := resolveSize(n, availW, availH)
	w -= n.Layout.Margin.Left + n.Layout.Margin.Right
	h -= n.Layout.Margin.Top + n.Layout.Margin.Bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	n.W, n.H = w, h

	if len(n.children) == 0 {
		return
	}

	contentW := w - n.Layout.Padding.Left - n.Layout.Padding.Right
	contentH := h - n.Layout.Padding.Top - n.Layout.Padding.Bottom
	if contentW < 0 {
		contentW = 0
	}
	if contentH < 0 {
		contentH = 0
	}

	var flow, absolute []*Node
	for _, c := range n.children {
		if c.Layout.Position == PositionAbsolute {
			absolute = append(absolute, c)
		} else {
			flow = append(flow, c)
		}
	}

	layoutFlexChildren(n, flow, contentW, contentH, n.Layout.Padding.Left, n.Layout.Padding.Top)

	for _, c := range absolute {
		cw, ch := resolveSize(c, contentW, contentH)
		c.W, c.H = cw, ch
		c.X = n.Layout.Padding.Left + c.Layout.OffsetX
		c.Y = n.Layout.Padding.Top + c.Layout.OffsetY
		layoutNode(c, cw, ch)
	}
}

// layoutFlexChildren implements the flexbox common subset named in spec
// §4.7: direction, grow, shrink, basis, gap, align-items, justify-content.
func layoutFlexChildren(parent *Node, children []*Node, contentW, contentH, padLeft, padTop int) {
	if len(children) == 0 {
		return
	}
	row := parent.Layout.Direction == DirectionRow
	mainAvail, crossAvail := contentH, contentW
	if row {
		mainAvail, crossAvail = contentW, contentH
	}
	gap := parent.Layout.Gap

	basis := make([]int, len(children))
	minMain := make([]int, len(children))
	for i, c := range children {
		basis[i] = flexBasis(c, row, crossAvail)
		minMain[i] = flexMinMain(c, row)
	}

	used := 0
	for i := range children {
		used += basis[i]
	}
	used += gap * maxInt(0, len(children)-1)
	remaining := mainAvail - used

	mainSize := make([]int, len(children))
	copy(mainSize, basis)

	if remaining > 0 {
		totalGrow := float32(0)
		for _, c := range children {
			totalGrow += c.Layout.FlexGrow
		}
		if totalGrow > 0 {
			for i, c := range children {
				if c.Layout.FlexGrow > 0 {
					mainSize[i] += int(float32(remaining) * (c.Layout.FlexGrow / totalGrow))
				}
			}
			remaining = 0
		}
	} else if remaining < 0 {
		totalShrink := float32(0)
		for _, c := range children {
			totalShrink += c.Layout.FlexShrink
		}
		deficit := -remaining
		if totalShrink > 0 {
			for i, c := range children {
				if c.Layout.FlexShrink > 0 {
					cut := int(float32(deficit) * (c.Layout.FlexShrink / totalShrink))
					mainSize[i] -= cut
					if mainSize[i] < minMain[i] {
						mainSize[i] = minMain[i]
					}
				}
			}
		}
		remaining = 0
	}

	// Main-axis placement, honoring justify-content with whatever slack
	// is left after grow/shrink (space-between only matters with no grow).
	totalMain := 0
	for _, s := range mainSize {
		totalMain += s
	}
	totalMain += gap * maxInt(0, len(children)-1)
	slack := mainAvail - totalMain
	if slack < 0 {
		slack = 0
	}

	var cursor, extraGap int
	switch parent.Layout.Justify {
	case JustifyCenter:
		cursor = slack / 2
	case JustifyEnd:
		cursor = slack
	case JustifySpaceBetween:
		if len(children) > 1 {
			extraGap = slack / (len(children) - 1)
		} else {
			cursor = slack / 2
		}
	}

	for i, c := range children {
		crossSize := flexCrossSize(c, row, parent.Layout.Align, crossAvail)
		var mainOff, crossOff int
		mainOff = cursor
		crossOff = flexCrossOffset(c, parent.Layout.Align, crossAvail, crossSize)

		// An explicit main-axis size is only the flex basis: the child is
		// laid out at its grown/shrunk mainSize, then the attribute is
		// restored.
		if row {
			c.X = padLeft + marginLeadingEdge(c, true) + mainOff
			c.Y = padTop + marginLeadingEdge(c, false) + crossOff
			saved := c.Layout.Width
			if saved > 0 {
				c.Layout.Width = mainSize[i]
			}
			layoutNode(c, mainSize[i], crossSize)
			c.Layout.Width = saved
		} else {
			c.X = padLeft + marginLeadingEdge(c, true) + crossOff
			c.Y = padTop + marginLeadingEdge(c, false) + mainOff
			saved := c.Layout.Height
			if saved > 0 {
				c.Layout.Height = mainSize[i]
			}
			layoutNode(c, crossSize, mainSize[i])
			c.Layout.Height = saved
		}
		cursor += mainSize[i] + gap + extraGap
	}
}

func marginLeadingEdge(c *Node, horizontal bool) int {
	if horizontal {
		return c.Layout.Margin.Left
	}
	return c.Layout.Margin.Top
}

func flexBasis(c *Node, row bool, crossAvail int) int {
	if c.Layout.FlexBasis > 0 {
		return c.Layout.FlexBasis
	}
	if row && c.Layout.Width > 0 {
		return c.Layout.Width
	}
	if !row && c.Layout.Height > 0 {
		return c.Layout.Height
	}
	if c.measure != nil {
		w, h := c.measure(crossAvail, crossAvail)
		if row {
			return w
		}
		return h
	}
	if row {
		if c.Layout.MinWidth > 0 {
			return c.Layout.MinWidth
		}
	} else if c.Layout.MinHeight > 0 {
		return c.Layout.MinHeight
	}
	return 0
}

func flexMinMain(c *Node, row bool) int {
	if row {
		return c.Layout.MinWidth
	}
	return c.Layout.MinHeight
}

func flexCrossSize(c *Node, row bool, align AlignItems, crossAvail int) int {
	if align == AlignStretch {
		return crossAvail
	}
	if row {
		if c.Layout.Height > 0 {
			return c.Layout.Height
		}
	} else if c.Layout.Width > 0 {
		return c.Layout.Width
	}
	if c.measure != nil {
		w, h := c.measure(crossAvail, crossAvail)
		if row {
			return h
		}
		return w
	}
	return crossAvail
}

func flexCrossOffset(c *Node, align AlignItems, crossAvail, crossSize int) int {
	switch align {
	case AlignCenter:
		return maxInt(0, (crossAvail-crossSize)/2)
	case AlignEnd:
		return maxInt(0, crossAvail-crossSize)
	default:
		return 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
