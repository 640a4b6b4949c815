package compiler

// Type is a closed sum: ClassType | ArrayType | VoidType. Name equality drives equality for
// ClassType; ArrayType is invariant in its element type.
type Type interface {
	Name() string
	Descriptor() string
	equalType(Type) bool
}

type ClassType struct {
	ClassName string
	Decl      *ClassDecl // nil for built-ins (Integer, Boolean, Real, Printer).
}

func (t *ClassType) Name() string { return t.ClassName }

func (t *ClassType) Descriptor() string {
	switch t.ClassName {
	case "Integer", "Boolean":
		return "I"
	case "Real":
		return "D"
	default:
		return "L" + t.ClassName + ";"
	}
}

func (t *ClassType) equalType(other Type) bool {
	o, ok := other.(*ClassType)
	return ok && o.ClassName == t.ClassName
}

func (t *ClassType) IsBuiltin() bool {
	return t.Decl == nil
}

type ArrayType struct {
	Elem Type
}

func (t *ArrayType) Name() string       { return "Array[" + t.Elem.Name() + "]" }
func (t *ArrayType) Descriptor() string { return "[" + t.Elem.Descriptor() }
func (t *ArrayType) equalType(other Type) bool {
	o, ok := other.(*ArrayType)
	return ok && typeEquals(o.Elem, t.Elem)
}

type VoidType struct{}

func (VoidType) Name() string           { return "Void" }
func (VoidType) Descriptor() string     { return "V" }
func (VoidType) equalType(other Type) bool {
	_, ok := other.(VoidType)
	return ok
}

var theVoidType = VoidType{}

// Built-in ClassType singletons, shared across the whole compilation unit.
var (
	integerType = &ClassType{ClassName: "Integer"}
	booleanType = &ClassType{ClassName: "Boolean"}
	realType    = &ClassType{ClassName: "Real"}
	printerType = &ClassType{ClassName: "Printer"}
)

var builtinTypes = map[string]*ClassType{
	"Integer": integerType,
	"Boolean": booleanType,
	"Real":    realType,
	"Printer": printerType,
}

func typeEquals(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.equalType(b)
}

// isCompatibleWith implements the compatibility relation of the type model: equal types,
// ClassType subclassing (A's base-class chain reaches B), or ArrayType with identical
// (invariant) element types. There is no Integer/Real promotion.
func isCompatibleWith(value, target Type) bool {
	if typeEquals(value, target) {
		return true
	}
	valueClass, ok1 := value.(*ClassType)
	targetClass, ok2 := target.(*ClassType)
	if ok1 && ok2 {
		return classExtends(valueClass, targetClass)
	}
	return false
}

func classExtends(value, target *ClassType) bool {
	if value.Decl == nil {
		return false
	}
	for c := value.Decl; c != nil; c = c.Base {
		if c.Name == target.ClassName {
			return true
		}
	}
	return false
}
