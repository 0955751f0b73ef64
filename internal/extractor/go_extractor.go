package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
)

type goFile struct {
	path string
	src  []byte
}

type typeKind int

const (
	kindOther typeKind = iota
	kindStruct
	kindInterface
)

type typeParam struct {
	name       string
	constraint *sitter.Node
}

type goType struct {
	name       string
	kind       typeKind
	file       *goFile
	node       *sitter.Node // type_spec
	doc        string
	params     []typeParam
	underlying *sitter.Node

	fields      []*goField
	ifaceEmbeds []*sitter.Node
	ifaceFuncs  []*goFunc

	ctors   []*goFunc
	methods []*goFunc
	consts  []*goConst
}

type goField struct {
	name     string
	typ      *sitter.Node
	embedded bool
	pointer  bool // embedded through a pointer
	node     *sitter.Node
	doc      string
}

type goParam struct {
	name     string
	typ      *sitter.Node
	variadic bool
}

type goFunc struct {
	name       string
	file       *goFile
	node       *sitter.Node
	doc        string
	typeParams []typeParam
	params     []goParam
	result     *sitter.Node
	// scope renames the Go type parameters in scope to the declaring
	// type's parameter names.
	scope map[string]string
}

type goConst struct {
	name  string
	typ   string // Go type name, empty when untyped
	value any
	file  *goFile
	node  *sitter.Node
	doc   string
}

// packageState accumulates the declarations of one package across files.
type packageState struct {
	logger  *zap.Logger
	name    string
	docs    []string
	types   map[string]*goType
	order   []*goType
	funcs   []*goFunc
	methods []pendingMethod
	consts  []*goConst
}

type pendingMethod struct {
	receiver string
	args     []string
	fn       *goFunc
}

func newPackageState(logger *zap.Logger) *packageState {
	return &packageState{logger: logger, types: make(map[string]*goType)}
}

func (s *packageState) collect(f *goFile, root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_clause":
			if doc := extractDocComment(n, f.src); doc != "" {
				s.docs = append(s.docs, doc)
			}
		case "type_declaration":
			for j := 0; j < int(n.NamedChildCount()); j++ {
				if spec := n.NamedChild(j); spec.Type() == "type_spec" {
					s.collectType(f, n, spec)
				}
			}
		case "function_declaration":
			s.funcs = append(s.funcs, s.extractFunction(f, n))
		case "method_declaration":
			s.collectMethod(f, n)
		case "const_declaration":
			s.collectConsts(f, n)
		}
	}
}

func (s *packageState) collectType(f *goFile, decl, spec *sitter.Node) {
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	t := &goType{
		name: nameNode.Content(f.src),
		file: f,
		node: spec,
	}
	// A grouped declaration documents each spec; a single one documents
	// the declaration.
	t.doc = extractDocComment(spec, f.src)
	if t.doc == "" && decl.NamedChildCount() == 1 {
		t.doc = extractDocComment(decl, f.src)
	}
	if tp := spec.ChildByFieldName("type_parameters"); tp != nil {
		t.params = extractTypeParams(tp, f.src)
	}

	typeNode := spec.ChildByFieldName("type")
	t.underlying = typeNode
	if typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			t.kind = kindStruct
			t.fields = extractStructFields(typeNode, f.src)
		case "interface_type":
			t.kind = kindInterface
			s.extractInterface(t, typeNode)
		}
	}

	if _, dup := s.types[t.name]; dup {
		s.logger.Debug("duplicate type declaration", zap.String("type", t.name), zap.String("file", f.path))
		return
	}
	s.types[t.name] = t
	s.order = append(s.order, t)
}

func extractStructFields(structNode *sitter.Node, src []byte) []*goField {
	var fieldList *sitter.Node
	for i := 0; i < int(structNode.NamedChildCount()); i++ {
		if child := structNode.NamedChild(i); child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return nil
	}

	var fields []*goField
	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		fieldDecl := fieldList.NamedChild(i)
		if fieldDecl.Type() != "field_declaration" {
			continue
		}
		typeNode := fieldDecl.ChildByFieldName("type")
		doc := extractDocComment(fieldDecl, src)

		foundNames := false
		for j := 0; j < int(fieldDecl.NamedChildCount()); j++ {
			child := fieldDecl.NamedChild(j)
			if child.Type() == "field_identifier" {
				fields = append(fields, &goField{name: child.Content(src), typ: typeNode, node: fieldDecl, doc: doc})
				foundNames = true
			}
		}
		if !foundNames && typeNode != nil {
			fields = append(fields, &goField{
				name:     embeddedName(typeNode, src),
				typ:      typeNode,
				embedded: true,
				pointer:  isPointerEmbed(fieldDecl),
				node:     fieldDecl,
				doc:      doc,
			})
		}
	}
	return fields
}

func isPointerEmbed(fieldDecl *sitter.Node) bool {
	for i := 0; i < int(fieldDecl.ChildCount()); i++ {
		if fieldDecl.Child(i).Type() == "*" {
			return true
		}
	}
	return false
}

// embeddedName is the field name Go gives an embedded type.
func embeddedName(n *sitter.Node, src []byte) string {
	name := baseTypeNode(n, src)
	if name == nil {
		return strings.TrimPrefix(n.Content(src), "*")
	}
	s := name.Content(src)
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func (s *packageState) extractInterface(t *goType, interfaceNode *sitter.Node) {
	src := t.file.src
	for i := 0; i < int(interfaceNode.NamedChildCount()); i++ {
		n := interfaceNode.NamedChild(i)
		switch n.Type() {
		case "method_elem", "method_spec":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			fn := &goFunc{
				name: nameNode.Content(src),
				file: t.file,
				node: n,
				doc:  extractDocComment(n, src),
			}
			if paramsNode := n.ChildByFieldName("parameters"); paramsNode != nil {
				fn.params = extractParams(paramsNode, src)
			}
			fn.result = firstResult(n.ChildByFieldName("result"))
			t.ifaceFuncs = append(t.ifaceFuncs, fn)
		case "type_elem", "interface_type_name", "constraint_elem", "type_identifier", "qualified_type":
			t.ifaceEmbeds = append(t.ifaceEmbeds, unwrapElem(n))
		}
	}
}

func (s *packageState) extractFunction(f *goFile, node *sitter.Node) *goFunc {
	fn := &goFunc{
		file: f,
		node: node,
		doc:  extractDocComment(node, f.src),
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		fn.name = nameNode.Content(f.src)
	}
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		fn.typeParams = extractTypeParams(tp, f.src)
	}
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		fn.params = extractParams(paramsNode, f.src)
	}
	fn.result = firstResult(node.ChildByFieldName("result"))
	return fn
}

func (s *packageState) collectMethod(f *goFile, node *sitter.Node) {
	fn := s.extractFunction(f, node)
	receiverNode := node.ChildByFieldName("receiver")
	if receiverNode == nil {
		return
	}
	params := extractParams(receiverNode, f.src)
	if len(params) != 1 || params[0].typ == nil {
		return
	}
	recv := params[0].typ
	if recv.Type() == "pointer_type" {
		recv = recv.NamedChild(0)
	}
	m := pendingMethod{fn: fn}
	switch recv.Type() {
	case "type_identifier":
		m.receiver = recv.Content(f.src)
	case "generic_type":
		m.receiver = recv.ChildByFieldName("type").Content(f.src)
		for _, arg := range typeArguments(recv.ChildByFieldName("type_arguments")) {
			m.args = append(m.args, arg.Content(f.src))
		}
	default:
		return
	}
	s.methods = append(s.methods, m)
}

// collectConsts evaluates a const declaration. A spec without values repeats
// the previous spec's type and expression with the next iota.
func (s *packageState) collectConsts(f *goFile, decl *sitter.Node) {
	var (
		lastType  string
		lastValue *sitter.Node
		index     int64
	)
	known := make(map[string]any)
	for _, c := range s.consts {
		known[c.name] = c.value
	}

	for i := 0; i < int(decl.NamedChildCount()); i++ {
		spec := decl.NamedChild(i)
		if spec.Type() != "const_spec" {
			continue
		}
		if valueNode := spec.ChildByFieldName("value"); valueNode != nil {
			lastValue = valueNode
			lastType = ""
			if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
				lastType = typeNode.Content(f.src)
			}
		}

		doc := extractDocComment(spec, f.src)
		if doc == "" && decl.NamedChildCount() == 1 {
			doc = extractDocComment(decl, f.src)
		}

		var names []*sitter.Node
		for j := 0; j < int(spec.NamedChildCount()); j++ {
			if n := spec.NamedChild(j); n.Type() == "identifier" {
				names = append(names, n)
			}
		}
		var values []*sitter.Node
		if lastValue != nil {
			for j := 0; j < int(lastValue.NamedChildCount()); j++ {
				values = append(values, lastValue.NamedChild(j))
			}
		}

		for j, nameNode := range names {
			name := nameNode.Content(f.src)
			if j >= len(values) || name == "_" {
				continue
			}
			v, ok := evalConst(values[j], f.src, constEnv{iota: index, known: known})
			if !ok {
				s.logger.Debug("skipping constant", zap.String("name", name), zap.String("file", f.path))
				continue
			}
			known[name] = v
			s.consts = append(s.consts, &goConst{
				name:  name,
				typ:   lastType,
				value: v,
				file:  f,
				node:  spec,
				doc:   doc,
			})
		}
		index++
	}
}

func extractTypeParams(list *sitter.Node, src []byte) []typeParam {
	var params []typeParam
	for i := 0; i < int(list.NamedChildCount()); i++ {
		decl := list.NamedChild(i)
		switch decl.Type() {
		case "type_parameter_declaration", "parameter_declaration":
		default:
			continue
		}
		constraint := decl.ChildByFieldName("type")
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			if n := decl.NamedChild(j); n.Type() == "identifier" {
				params = append(params, typeParam{name: n.Content(src), constraint: unwrapElem(constraint)})
			}
		}
	}
	return params
}

func extractParams(paramsNode *sitter.Node, src []byte) []goParam {
	var params []goParam
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		pNode := paramsNode.NamedChild(i)
		variadic := pNode.Type() == "variadic_parameter_declaration"
		if pNode.Type() != "parameter_declaration" && !variadic {
			continue
		}
		pType := pNode.ChildByFieldName("type")
		var names []string
		for j := 0; j < int(pNode.NamedChildCount()); j++ {
			if child := pNode.NamedChild(j); child.Type() == "identifier" {
				names = append(names, child.Content(src))
			}
		}
		if len(names) == 0 {
			names = []string{""}
		}
		for _, n := range names {
			params = append(params, goParam{name: n, typ: pType, variadic: variadic})
		}
	}
	return params
}

// firstResult returns the type of the first result. Later results have no
// counterpart in a method signature.
func firstResult(resultNode *sitter.Node) *sitter.Node {
	if resultNode == nil {
		return nil
	}
	if resultNode.Type() != "parameter_list" {
		return resultNode
	}
	for i := 0; i < int(resultNode.NamedChildCount()); i++ {
		if p := resultNode.NamedChild(i); p.Type() == "parameter_declaration" {
			return p.ChildByFieldName("type")
		}
	}
	return nil
}

func typeArguments(args *sitter.Node) []*sitter.Node {
	if args == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if arg := args.NamedChild(i); arg.Type() != "comment" {
			out = append(out, unwrapElem(arg))
		}
	}
	return out
}

// unwrapElem strips the single-child wrappers the grammar puts around types
// in constraints and type argument lists.
func unwrapElem(n *sitter.Node) *sitter.Node {
	for n != nil && n.NamedChildCount() == 1 {
		switch n.Type() {
		case "type_elem", "type_constraint", "constraint_elem", "interface_type_name":
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return n
}

// baseTypeNode returns the named type under pointers and type arguments.
func baseTypeNode(n *sitter.Node, src []byte) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "type_identifier", "qualified_type":
			return n
		case "pointer_type":
			n = n.NamedChild(0)
		case "generic_type":
			n = n.ChildByFieldName("type")
		default:
			return nil
		}
	}
	return nil
}

func extractDocComment(node *sitter.Node, sourceCode []byte) string {
	var commentLines []string
	currentNode := node
	for {
		prevSibling := currentNode.PrevSibling()
		if prevSibling == nil || (currentNode.StartPoint().Row-prevSibling.EndPoint().Row > 1) {
			break
		}
		if prevSibling.Type() != "comment" {
			break
		}
		commentLines = append([]string{prevSibling.Content(sourceCode)}, commentLines...)
		currentNode = prevSibling
	}
	return cleanDocComment(strings.Join(commentLines, "\n"))
}

func cleanDocComment(rawComment string) string {
	if rawComment == "" {
		return ""
	}
	lines := strings.Split(rawComment, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		cleaned = append(cleaned, strings.TrimSpace(l))
	}
	return strings.Join(cleaned, "\n")
}
