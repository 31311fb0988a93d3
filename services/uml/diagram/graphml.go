// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diagram

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The structs below mirror the subset of yEd's GraphML dialect the writer
// emits. Prefixed element names are written verbatim; encoding/xml does not
// manage the y: namespace itself.

type xmlDocument struct {
	XMLName        xml.Name  `xml:"graphml"`
	Xmlns          string    `xml:"xmlns,attr"`
	XmlnsJava      string    `xml:"xmlns:java,attr"`
	XmlnsSys       string    `xml:"xmlns:sys,attr"`
	XmlnsX         string    `xml:"xmlns:x,attr"`
	XmlnsXsi       string    `xml:"xmlns:xsi,attr"`
	XmlnsY         string    `xml:"xmlns:y,attr"`
	XmlnsYed       string    `xml:"xmlns:yed,attr"`
	SchemaLocation string    `xml:"xsi:schemaLocation,attr"`
	Comment        string    `xml:",comment"`
	Keys           []xmlKey  `xml:"key"`
	Graph          *xmlGraph `xml:"graph"`
	Resources      xmlData   `xml:"data"`
}

type xmlKey struct {
	ID         string `xml:"id,attr"`
	For        string `xml:"for,attr"`
	AttrName   string `xml:"attr.name,attr,omitempty"`
	AttrType   string `xml:"attr.type,attr,omitempty"`
	YfilesType string `xml:"yfiles.type,attr,omitempty"`
}

type xmlGraph struct {
	ID          string    `xml:"id,attr"`
	EdgeDefault string    `xml:"edgedefault,attr"`
	Data        *xmlData  `xml:"data,omitempty"`
	Nodes       []xmlNode `xml:"node"`
	Edges       []xmlEdge `xml:"edge"`
}

type xmlData struct {
	Key             string              `xml:"key,attr"`
	Resources       *struct{}           `xml:"y:Resources,omitempty"`
	UMLClassNode    *xmlUMLClassNode    `xml:"y:UMLClassNode,omitempty"`
	UMLNoteNode     *xmlUMLNoteNode     `xml:"y:UMLNoteNode,omitempty"`
	ProxyAutoBounds *xmlProxyAutoBounds `xml:"y:ProxyAutoBoundsNode,omitempty"`
	PolyLineEdge    *xmlPolyLineEdge    `xml:"y:PolyLineEdge,omitempty"`
}

type xmlNode struct {
	ID         string    `xml:"id,attr"`
	FolderType string    `xml:"yfiles.foldertype,attr,omitempty"`
	Data       xmlData   `xml:"data"`
	Graph      *xmlGraph `xml:"graph,omitempty"`
}

type xmlEdge struct {
	ID     string  `xml:"id,attr"`
	Source string  `xml:"source,attr"`
	Target string  `xml:"target,attr"`
	Data   xmlData `xml:"data"`
}

type xmlGeometry struct {
	Height float64 `xml:"height,attr"`
	Width  float64 `xml:"width,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
}

type xmlFill struct {
	Color       string `xml:"color,attr"`
	Transparent bool   `xml:"transparent,attr"`
}

type xmlBorderStyle struct {
	Color string `xml:"color,attr"`
	Type  string `xml:"type,attr"`
	Width string `xml:"width,attr"`
}

type xmlNodeLabel struct {
	Alignment       string `xml:"alignment,attr"`
	AutoSizePolicy  string `xml:"autoSizePolicy,attr"`
	BackgroundColor string `xml:"backgroundColor,attr,omitempty"`
	FontFamily      string `xml:"fontFamily,attr"`
	FontSize        int    `xml:"fontSize,attr"`
	FontStyle       string `xml:"fontStyle,attr"`
	ModelName       string `xml:"modelName,attr"`
	ModelPosition   string `xml:"modelPosition,attr,omitempty"`
	TextColor       string `xml:"textColor,attr"`
	Underlined      bool   `xml:"underlinedText,attr,omitempty"`
	Visible         bool   `xml:"visible,attr"`
	Text            string `xml:",chardata"`
}

type xmlUML struct {
	ClipContent    bool   `xml:"clipContent,attr"`
	Constraint     string `xml:"constraint,attr"`
	OmitDetails    bool   `xml:"omitDetails,attr"`
	Stereotype     string `xml:"stereotype,attr"`
	Use3DEffect    bool   `xml:"use3DEffect,attr"`
	AttributeLabel string `xml:"y:AttributeLabel"`
	MethodLabel    string `xml:"y:MethodLabel"`
}

type xmlUMLClassNode struct {
	Geometry    xmlGeometry    `xml:"y:Geometry"`
	Fill        xmlFill        `xml:"y:Fill"`
	BorderStyle xmlBorderStyle `xml:"y:BorderStyle"`
	NodeLabel   xmlNodeLabel   `xml:"y:NodeLabel"`
	UML         xmlUML         `xml:"y:UML"`
}

type xmlUMLNoteNode struct {
	Geometry    xmlGeometry    `xml:"y:Geometry"`
	Fill        xmlFill        `xml:"y:Fill"`
	BorderStyle xmlBorderStyle `xml:"y:BorderStyle"`
	NodeLabel   xmlNodeLabel   `xml:"y:NodeLabel"`
}

type xmlProxyAutoBounds struct {
	Realizers xmlRealizers `xml:"y:Realizers"`
}

type xmlRealizers struct {
	Active     int            `xml:"active,attr"`
	GroupNodes []xmlGroupNode `xml:"y:GroupNode"`
}

type xmlShape struct {
	Type string `xml:"type,attr"`
}

type xmlState struct {
	Closed       bool    `xml:"closed,attr"`
	ClosedHeight float64 `xml:"closedHeight,attr"`
	ClosedWidth  float64 `xml:"closedWidth,attr"`
	InnerGraph   bool    `xml:"innerGraphDisplayEnabled,attr"`
}

type xmlInsets struct {
	Bottom int `xml:"bottom,attr"`
	Left   int `xml:"left,attr"`
	Right  int `xml:"right,attr"`
	Top    int `xml:"top,attr"`
}

type xmlGroupNode struct {
	Geometry    xmlGeometry    `xml:"y:Geometry"`
	Fill        xmlFill        `xml:"y:Fill"`
	BorderStyle xmlBorderStyle `xml:"y:BorderStyle"`
	NodeLabel   xmlNodeLabel   `xml:"y:NodeLabel"`
	Shape       xmlShape       `xml:"y:Shape"`
	State       xmlState       `xml:"y:State"`
	Insets      xmlInsets      `xml:"y:Insets"`
}

type xmlPath struct {
	SX float64 `xml:"sx,attr"`
	SY float64 `xml:"sy,attr"`
	TX float64 `xml:"tx,attr"`
	TY float64 `xml:"ty,attr"`
}

type xmlLineStyle struct {
	Color string `xml:"color,attr"`
	Type  string `xml:"type,attr"`
	Width string `xml:"width,attr"`
}

type xmlArrows struct {
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type xmlBendStyle struct {
	Smoothed bool `xml:"smoothed,attr"`
}

type xmlPolyLineEdge struct {
	Path      xmlPath      `xml:"y:Path"`
	LineStyle xmlLineStyle `xml:"y:LineStyle"`
	Arrows    xmlArrows    `xml:"y:Arrows"`
	BendStyle xmlBendStyle `xml:"y:BendStyle"`
}

// GraphML key ids.
const (
	keyGraphDescription = "d0"
	keyNodeGraphics     = "d6"
	keyResources        = "d7"
	keyEdgeGraphics     = "d10"
)

var graphMLKeys = []xmlKey{
	{ID: "d0", For: "graph", AttrName: "Description", AttrType: "string"},
	{ID: "d1", For: "port", YfilesType: "portgraphics"},
	{ID: "d2", For: "port", YfilesType: "portgeometry"},
	{ID: "d3", For: "port", YfilesType: "portuserdata"},
	{ID: "d4", For: "node", AttrName: "url", AttrType: "string"},
	{ID: "d5", For: "node", AttrName: "description", AttrType: "string"},
	{ID: "d6", For: "node", YfilesType: "nodegraphics"},
	{ID: "d7", For: "graphml", YfilesType: "resources"},
	{ID: "d8", For: "edge", AttrName: "url", AttrType: "string"},
	{ID: "d9", For: "edge", AttrName: "description", AttrType: "string"},
	{ID: "d10", For: "edge", YfilesType: "edgegraphics"},
}

// Layout constants for the initial placement. Nodes are placed left to
// right and wrap after rowWidth pixels.
const (
	nodeSpacing = 40.0
	rowWidth    = 1600.0
)

// idGenerator hands out sequential ids with a fixed prefix.
type idGenerator struct {
	prefix string
	next   int
}

func (g *idGenerator) id() string {
	id := g.prefix + strconv.Itoa(g.next)
	g.next++
	return id
}

// graphMLWriter carries the per-document state of one WriteGraphML call.
type graphMLWriter struct {
	font  string
	ids   map[Node]string
	edges idGenerator
	x, y  float64
	rowH  float64
}

// WriteGraphML writes g as a yEd GraphML document.
//
// Description:
//
//	Class nodes become UMLClassNode elements, notes UMLNoteNode elements
//	and groups collapsible ProxyAutoBoundsNode group nodes. Node ids are
//	n0, n1, ... per graph level; nodes inside a group are prefixed with
//	the group id ("n0::n1"). Edge ids are e0, e1, ... for the whole
//	document.
//
// Inputs:
//
//	w - Destination.
//	g - The graph. Must not be nil. Labels use g.FontFamily.
//
// Outputs:
//
//	error - Non-nil on write failure.
func WriteGraphML(w io.Writer, g *Graph) error {
	if g == nil {
		return ErrNilGraph
	}
	font := g.FontFamily
	if font == "" {
		font = DefaultSettings().FontFamily
	}

	gw := &graphMLWriter{
		font:  font,
		ids:   make(map[Node]string),
		edges: idGenerator{prefix: "e"},
	}

	root := gw.graph("G", "", g)
	root.Data = &xmlData{Key: keyGraphDescription}
	for _, e := range g.Edges {
		source, okS := gw.ids[e.Source]
		target, okT := gw.ids[e.Target]
		if !okS || !okT {
			return fmt.Errorf("edge %s references a node outside the graph", e.Kind)
		}
		root.Edges = append(root.Edges, xmlEdge{
			ID:     gw.edges.id(),
			Source: source,
			Target: target,
			Data:   xmlData{Key: keyEdgeGraphics, PolyLineEdge: polyLine(e.Kind)},
		})
	}

	doc := xmlDocument{
		Xmlns:          "http://graphml.graphdrawing.org/xmlns",
		XmlnsJava:      "http://www.yworks.com/xml/yfiles-common/1.0/java",
		XmlnsSys:       "http://www.yworks.com/xml/yfiles-common/markup/primitives/2.0",
		XmlnsX:         "http://www.yworks.com/xml/yfiles-common/markup/2.0",
		XmlnsXsi:       "http://www.w3.org/2001/XMLSchema-instance",
		XmlnsY:         "http://www.yworks.com/xml/graphml",
		XmlnsYed:       "http://www.yworks.com/xml/yed/3",
		SchemaLocation: "http://graphml.graphdrawing.org/xmlns http://www.yworks.com/xml/schema/graphml/1.1/ygraphml.xsd",
		Comment:        " Generated by tsuml ",
		Keys:           graphMLKeys,
		Graph:          root,
		Resources:      xmlData{Key: keyResources, Resources: &struct{}{}},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding graphml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// graph converts one graph level. prefix is "" at the root and
// "<groupid>::" inside groups.
func (gw *graphMLWriter) graph(id, prefix string, g *Graph) *xmlGraph {
	out := &xmlGraph{ID: id, EdgeDefault: "directed"}
	nodes := idGenerator{prefix: prefix + "n"}

	for _, grp := range g.Groups {
		groupID := nodes.id()
		inner := gw.graph(groupID+":", groupID+"::", grp.Graph)
		out.Nodes = append(out.Nodes, xmlNode{
			ID:         groupID,
			FolderType: "group",
			Data:       xmlData{Key: keyNodeGraphics, ProxyAutoBounds: gw.groupNode(grp)},
			Graph:      inner,
		})
	}
	for _, n := range g.Nodes {
		nodeID := nodes.id()
		gw.ids[n] = nodeID
		out.Nodes = append(out.Nodes, xmlNode{
			ID:   nodeID,
			Data: xmlData{Key: keyNodeGraphics, UMLClassNode: gw.classNode(n)},
		})
	}
	for _, n := range g.Notes {
		nodeID := nodes.id()
		gw.ids[n] = nodeID
		out.Nodes = append(out.Nodes, xmlNode{
			ID:   nodeID,
			Data: xmlData{Key: keyNodeGraphics, UMLNoteNode: gw.noteNode(n)},
		})
	}
	return out
}

// place returns the next free position for a box of the given size.
func (gw *graphMLWriter) place(width, height float64) xmlGeometry {
	if gw.x > 0 && gw.x+width > rowWidth {
		gw.x = 0
		gw.y += gw.rowH + nodeSpacing
		gw.rowH = 0
	}
	geo := xmlGeometry{Height: height, Width: width, X: gw.x, Y: gw.y}
	gw.x += width + nodeSpacing
	gw.rowH = max(gw.rowH, height)
	return geo
}

func (gw *graphMLWriter) classNode(n *ClassNode) *xmlUMLClassNode {
	return &xmlUMLClassNode{
		Geometry:    gw.place(n.Width, n.Height),
		Fill:        xmlFill{Color: "#FF9900"},
		BorderStyle: xmlBorderStyle{Color: "#000000", Type: "line", Width: "1.0"},
		NodeLabel: xmlNodeLabel{
			Alignment:      "center",
			AutoSizePolicy: "content",
			FontFamily:     gw.font,
			FontSize:       13,
			FontStyle:      "bold",
			ModelName:      "custom",
			TextColor:      "#000000",
			Underlined:     true,
			Visible:        true,
			Text:           n.Name,
		},
		UML: xmlUML{
			ClipContent:    true,
			Stereotype:     n.Stereotype,
			Use3DEffect:    true,
			AttributeLabel: strings.Join(n.Attributes, "\n"),
			MethodLabel:    strings.Join(n.Methods, "\n"),
		},
	}
}

func (gw *graphMLWriter) noteNode(n *NoteNode) *xmlUMLNoteNode {
	return &xmlUMLNoteNode{
		Geometry:    gw.place(n.Width, n.Height),
		Fill:        xmlFill{Color: "#FFCC00"},
		BorderStyle: xmlBorderStyle{Color: "#000000", Type: "line", Width: "1.0"},
		NodeLabel: xmlNodeLabel{
			Alignment:      "left",
			AutoSizePolicy: "content",
			FontFamily:     gw.font,
			FontSize:       12,
			FontStyle:      "plain",
			ModelName:      "internal",
			ModelPosition:  "l",
			TextColor:      "#000000",
			Visible:        true,
			Text:           n.Text,
		},
	}
}

func (gw *graphMLWriter) groupNode(grp *Group) *xmlProxyAutoBounds {
	label := func() xmlNodeLabel {
		return xmlNodeLabel{
			Alignment:       "right",
			AutoSizePolicy:  "node_width",
			BackgroundColor: "#EBEBEB",
			FontFamily:      gw.font,
			FontSize:        15,
			FontStyle:       "plain",
			ModelName:       "internal",
			ModelPosition:   "t",
			TextColor:       "#000000",
			Visible:         true,
			Text:            grp.Name,
		}
	}
	group := func(closed bool, inset int) xmlGroupNode {
		return xmlGroupNode{
			Geometry:    xmlGeometry{Height: 50, Width: 50},
			Fill:        xmlFill{Color: "#F5F5F5"},
			BorderStyle: xmlBorderStyle{Color: "#000000", Type: "dashed", Width: "1.0"},
			NodeLabel:   label(),
			Shape:       xmlShape{Type: "roundrectangle"},
			State:       xmlState{Closed: closed, ClosedHeight: 50, ClosedWidth: 50},
			Insets:      xmlInsets{Bottom: inset, Left: inset, Right: inset, Top: inset},
		}
	}
	return &xmlProxyAutoBounds{Realizers: xmlRealizers{
		Active:     0,
		GroupNodes: []xmlGroupNode{group(false, 15), group(true, 5)},
	}}
}

// polyLine draws usage as a dashed open arrow, inheritance as a solid
// line with a hollow triangle and implementation as a dashed line with a
// hollow triangle.
func polyLine(kind EdgeKind) *xmlPolyLineEdge {
	line, arrow := "dashed", "standard"
	switch kind {
	case EdgeInheritance:
		line, arrow = "line", "white_delta"
	case EdgeImplementation:
		arrow = "white_delta"
	}
	return &xmlPolyLineEdge{
		LineStyle: xmlLineStyle{Color: "#000000", Type: line, Width: "1.0"},
		Arrows:    xmlArrows{Source: "none", Target: arrow},
	}
}
