package ast

import "fmt"

// Tag selects the operator of a formula node.
type Tag int

// Family groups tags that share one node representation.
type Family int

const (
	FamilyFreeIdentifier Family = iota
	FamilyBoundIdentDecl
	FamilyBoundIdentifier
	FamilyIntegerLiteral
	FamilySetExtension
	FamilyRelationalPredicate
	FamilyBinaryExpression
	FamilyBinaryPredicate
	FamilyAssociativeExpression
	FamilyAssociativePredicate
	FamilyAtomicExpression
	FamilyBoolExpression
	FamilyLiteralPredicate
	FamilySimplePredicate
	FamilyUnaryPredicate
	FamilyUnaryExpression
	FamilyQuantifiedExpression
	FamilyQuantifiedPredicate
	FamilyAssignment
	FamilyMultiplePredicate
)

const (
	TagFreeIdent Tag = iota
	TagBoundIdentDecl
	TagBoundIdent
	TagIntLit
	TagSetExt

	// relational predicates
	TagEqual
	TagNotEqual
	TagLt
	TagLe
	TagGt
	TagGe
	TagIn
	TagNotIn
	TagSubset
	TagNotSubset
	TagSubsetEq
	TagNotSubsetEq

	// binary expressions
	TagMapsto
	TagRel
	TagTRel
	TagSRel
	TagSTRel
	TagPFun
	TagTFun
	TagPInj
	TagTInj
	TagPSur
	TagTSur
	TagTBij
	TagSetMinus
	TagCProd
	TagDProd
	TagPProd
	TagDomRes
	TagDomSub
	TagRanRes
	TagRanSub
	TagUpTo
	TagMinus
	TagDiv
	TagMod
	TagExpn
	TagFunImage
	TagRelImage

	// binary predicates
	TagLImp
	TagLEqv

	// associative expressions
	TagBUnion
	TagBInter
	TagBComp
	TagFComp
	TagOvr
	TagPlus
	TagMul

	// associative predicates
	TagLAnd
	TagLOr

	// atomic expressions
	TagInteger
	TagNatural
	TagNatural1
	TagBool
	TagTrue
	TagFalse
	TagEmptySet
	TagKPred
	TagKSucc
	TagKPrj1Gen
	TagKPrj2Gen
	TagKIdGen

	TagKBool

	// literal predicates
	TagBTrue
	TagBFalse

	TagKFinite
	TagNot

	// unary expressions
	TagKCard
	TagPow
	TagPow1
	TagKUnion
	TagKInter
	TagKDom
	TagKRan
	TagKMin
	TagKMax
	TagConverse
	TagUnMinus

	// quantified expressions
	TagQUnion
	TagQInter
	TagCSet

	// quantified predicates
	TagForall
	TagExists

	// assignments
	TagBecomesEqualTo
	TagBecomesMemberOf
	TagBecomesSuchThat

	TagKPartition

	tagCount
)

type tagData struct {
	name   string
	symbol string
	family Family
}

var tagTable = [tagCount]tagData{
	TagFreeIdent:      {"FREE_IDENT", "", FamilyFreeIdentifier},
	TagBoundIdentDecl: {"BOUND_IDENT_DECL", "", FamilyBoundIdentDecl},
	TagBoundIdent:     {"BOUND_IDENT", "", FamilyBoundIdentifier},
	TagIntLit:         {"INTLIT", "", FamilyIntegerLiteral},
	TagSetExt:         {"SETEXT", "{}", FamilySetExtension},

	TagEqual:       {"EQUAL", "=", FamilyRelationalPredicate},
	TagNotEqual:    {"NOTEQUAL", "≠", FamilyRelationalPredicate},
	TagLt:          {"LT", "<", FamilyRelationalPredicate},
	TagLe:          {"LE", "≤", FamilyRelationalPredicate},
	TagGt:          {"GT", ">", FamilyRelationalPredicate},
	TagGe:          {"GE", "≥", FamilyRelationalPredicate},
	TagIn:          {"IN", "∈", FamilyRelationalPredicate},
	TagNotIn:       {"NOTIN", "∉", FamilyRelationalPredicate},
	TagSubset:      {"SUBSET", "⊂", FamilyRelationalPredicate},
	TagNotSubset:   {"NOTSUBSET", "⊄", FamilyRelationalPredicate},
	TagSubsetEq:    {"SUBSETEQ", "⊆", FamilyRelationalPredicate},
	TagNotSubsetEq: {"NOTSUBSETEQ", "⊈", FamilyRelationalPredicate},

	TagMapsto:   {"MAPSTO", "↦", FamilyBinaryExpression},
	TagRel:      {"REL", "↔", FamilyBinaryExpression},
	TagTRel:     {"TREL", "\ue100", FamilyBinaryExpression},
	TagSRel:     {"SREL", "\ue101", FamilyBinaryExpression},
	TagSTRel:    {"STREL", "\ue102", FamilyBinaryExpression},
	TagPFun:     {"PFUN", "⇸", FamilyBinaryExpression},
	TagTFun:     {"TFUN", "→", FamilyBinaryExpression},
	TagPInj:     {"PINJ", "⤔", FamilyBinaryExpression},
	TagTInj:     {"TINJ", "↣", FamilyBinaryExpression},
	TagPSur:     {"PSUR", "⤀", FamilyBinaryExpression},
	TagTSur:     {"TSUR", "↠", FamilyBinaryExpression},
	TagTBij:     {"TBIJ", "⤖", FamilyBinaryExpression},
	TagSetMinus: {"SETMINUS", "∖", FamilyBinaryExpression},
	TagCProd:    {"CPROD", "×", FamilyBinaryExpression},
	TagDProd:    {"DPROD", "⊗", FamilyBinaryExpression},
	TagPProd:    {"PPROD", "∥", FamilyBinaryExpression},
	TagDomRes:   {"DOMRES", "◁", FamilyBinaryExpression},
	TagDomSub:   {"DOMSUB", "⩤", FamilyBinaryExpression},
	TagRanRes:   {"RANRES", "▷", FamilyBinaryExpression},
	TagRanSub:   {"RANSUB", "⩥", FamilyBinaryExpression},
	TagUpTo:     {"UPTO", "‥", FamilyBinaryExpression},
	TagMinus:    {"MINUS", "−", FamilyBinaryExpression},
	TagDiv:      {"DIV", "÷", FamilyBinaryExpression},
	TagMod:      {"MOD", "mod", FamilyBinaryExpression},
	TagExpn:     {"EXPN", "^", FamilyBinaryExpression},
	TagFunImage: {"FUNIMAGE", "()", FamilyBinaryExpression},
	TagRelImage: {"RELIMAGE", "[]", FamilyBinaryExpression},

	TagLImp: {"LIMP", "⇒", FamilyBinaryPredicate},
	TagLEqv: {"LEQV", "⇔", FamilyBinaryPredicate},

	TagBUnion: {"BUNION", "∪", FamilyAssociativeExpression},
	TagBInter: {"BINTER", "∩", FamilyAssociativeExpression},
	TagBComp:  {"BCOMP", "∘", FamilyAssociativeExpression},
	TagFComp:  {"FCOMP", ";", FamilyAssociativeExpression},
	TagOvr:    {"OVR", "\ue103", FamilyAssociativeExpression},
	TagPlus:   {"PLUS", "+", FamilyAssociativeExpression},
	TagMul:    {"MUL", "∗", FamilyAssociativeExpression},

	TagLAnd: {"LAND", "∧", FamilyAssociativePredicate},
	TagLOr:  {"LOR", "∨", FamilyAssociativePredicate},

	TagInteger:  {"INTEGER", "ℤ", FamilyAtomicExpression},
	TagNatural:  {"NATURAL", "ℕ", FamilyAtomicExpression},
	TagNatural1: {"NATURAL1", "ℕ1", FamilyAtomicExpression},
	TagBool:     {"BOOL", "BOOL", FamilyAtomicExpression},
	TagTrue:     {"TRUE", "TRUE", FamilyAtomicExpression},
	TagFalse:    {"FALSE", "FALSE", FamilyAtomicExpression},
	TagEmptySet: {"EMPTYSET", "∅", FamilyAtomicExpression},
	TagKPred:    {"KPRED", "pred", FamilyAtomicExpression},
	TagKSucc:    {"KSUCC", "succ", FamilyAtomicExpression},
	TagKPrj1Gen: {"KPRJ1_GEN", "prj1", FamilyAtomicExpression},
	TagKPrj2Gen: {"KPRJ2_GEN", "prj2", FamilyAtomicExpression},
	TagKIdGen:   {"KID_GEN", "id", FamilyAtomicExpression},

	TagKBool: {"KBOOL", "bool", FamilyBoolExpression},

	TagBTrue:  {"BTRUE", "⊤", FamilyLiteralPredicate},
	TagBFalse: {"BFALSE", "⊥", FamilyLiteralPredicate},

	TagKFinite: {"KFINITE", "finite", FamilySimplePredicate},
	TagNot:     {"NOT", "¬", FamilyUnaryPredicate},

	TagKCard:    {"KCARD", "card", FamilyUnaryExpression},
	TagPow:      {"POW", "ℙ", FamilyUnaryExpression},
	TagPow1:     {"POW1", "ℙ1", FamilyUnaryExpression},
	TagKUnion:   {"KUNION", "union", FamilyUnaryExpression},
	TagKInter:   {"KINTER", "inter", FamilyUnaryExpression},
	TagKDom:     {"KDOM", "dom", FamilyUnaryExpression},
	TagKRan:     {"KRAN", "ran", FamilyUnaryExpression},
	TagKMin:     {"KMIN", "min", FamilyUnaryExpression},
	TagKMax:     {"KMAX", "max", FamilyUnaryExpression},
	TagConverse: {"CONVERSE", "∼", FamilyUnaryExpression},
	TagUnMinus:  {"UNMINUS", "−", FamilyUnaryExpression},

	TagQUnion: {"QUNION", "⋃", FamilyQuantifiedExpression},
	TagQInter: {"QINTER", "⋂", FamilyQuantifiedExpression},
	TagCSet:   {"CSET", "{}", FamilyQuantifiedExpression},

	TagForall: {"FORALL", "∀", FamilyQuantifiedPredicate},
	TagExists: {"EXISTS", "∃", FamilyQuantifiedPredicate},

	TagBecomesEqualTo:  {"BECOMES_EQUAL_TO", "≔", FamilyAssignment},
	TagBecomesMemberOf: {"BECOMES_MEMBER_OF", ":∈", FamilyAssignment},
	TagBecomesSuchThat: {"BECOMES_SUCH_THAT", ":∣", FamilyAssignment},

	TagKPartition: {"KPARTITION", "partition", FamilyMultiplePredicate},
}

// String returns the tag name, e.g. "BUNION".
func (t Tag) String() string {
	if t < 0 || t >= tagCount {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return tagTable[t].name
}

// Symbol returns the operator as written in formulas, e.g. "∪".
func (t Tag) Symbol() string {
	if t < 0 || t >= tagCount {
		return "?"
	}
	return tagTable[t].symbol
}

// Family returns the node family representing this tag.
func (t Tag) Family() Family {
	return tagTable[t].family
}

// Is returns true if the tag belongs to the given family.
func (t Tag) Is(f Family) bool {
	return t >= 0 && t < tagCount && tagTable[t].family == f
}

// IsValid returns true for known tags.
func (t Tag) IsValid() bool { return t >= 0 && t < tagCount }

// Tags returns all tags of a family, in declaration order.
func Tags(f Family) []Tag {
	var result []Tag
	for t := Tag(0); t < tagCount; t++ {
		if tagTable[t].family == f {
			result = append(result, t)
		}
	}
	return result
}

// IsRelationConstructor returns true for ↔ and all function arrows.
func (t Tag) IsRelationConstructor() bool {
	return t >= TagRel && t <= TagTBij
}

// IsGenericAtomic returns true for the atomic expressions whose type
// cannot be derived from the tag alone.
func (t Tag) IsGenericAtomic() bool {
	switch t {
	case TagEmptySet, TagKPrj1Gen, TagKPrj2Gen, TagKIdGen:
		return true
	}
	return false
}

// LanguageFeature names syntax that only some language versions support.
type LanguageFeature string

const (
	FeaturePartition       LanguageFeature = "partition"
	FeatureGenericOperator LanguageFeature = "generic operators id/prj1/prj2"
)

// Feature returns the language feature a tag requires, if any.
func (t Tag) Feature() (LanguageFeature, bool) {
	switch t {
	case TagKPartition:
		return FeaturePartition, true
	case TagKIdGen, TagKPrj1Gen, TagKPrj2Gen:
		return FeatureGenericOperator, true
	}
	return "", false
}
