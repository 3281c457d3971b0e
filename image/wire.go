// Package image stores parsed programs as canonical CBOR. An image holds
// the syntax tree, not source text, so running one skips lexing and
// parsing. Identical trees always encode to identical bytes, which makes
// the encoding usable as a content hash.
package image

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Magic identifies a javdin image.
const Magic = "javdin-image"

// Version is the current image format version.
const Version = 1

// Ext is the conventional image file extension.
const Ext = ".jdi"

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	// Every tree level costs two CBOR levels (node map and child array).
	dm, err := cbor.DecOptions{MaxNestedLevels: 65535}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// header wraps the program tree.
type header struct {
	Magic   string `cbor:"1,keyasint"`
	Version uint8  `cbor:"2,keyasint"`
	Source  string `cbor:"3,keyasint,omitempty"` // file the image was built from
	Program *node  `cbor:"4,keyasint"`
}

type kind uint8

const (
	kindProgram kind = iota + 1
	kindDeclaration
	kindVarDef
	kindAssignment
	kindIf
	kindWhile
	kindFor
	kindReturn
	kindBreak
	kindContinue
	kindPrint
	kindBlock
	kindExprStmt

	kindLiteral
	kindReference
	kindBinaryOp
	kindUnaryOp
	kindCall
	kindIndex
	kindArrayLiteral
	kindTupleLiteral
	kindTupleElement
	kindFuncLiteral
	kindTypeCheck
	kindMemberAccess
)

type pos struct {
	Offset int `cbor:"1,keyasint,omitempty"`
	Line   int `cbor:"2,keyasint,omitempty"`
	Column int `cbor:"3,keyasint,omitempty"`
}

// node is the uniform wire form of every syntax tree node. Which fields
// are meaningful depends on Kind; Kids holds child nodes in a fixed order
// per kind, with nil for absent optional children.
type node struct {
	Kind  kind     `cbor:"1,keyasint"`
	Start pos      `cbor:"2,keyasint"`
	End   pos      `cbor:"3,keyasint"`
	Text  string   `cbor:"4,keyasint,omitempty"` // operator, name or string value
	Int   int64    `cbor:"5,keyasint,omitempty"`
	Real  float64  `cbor:"6,keyasint,omitempty"`
	Bool  bool     `cbor:"7,keyasint,omitempty"`
	Tag   int      `cbor:"8,keyasint,omitempty"` // literal kind, loop kind or type indicator
	Names []string `cbor:"9,keyasint,omitempty"`
	Kids  []*node  `cbor:"10,keyasint,omitempty"`
}
