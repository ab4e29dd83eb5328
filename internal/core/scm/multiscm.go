package scm

// MultiSCMExtractor 对组合中的每个 SCM 递归运行提取器
type MultiSCMExtractor struct{}

func (MultiSCMExtractor) Name() string { return "multi-scm" }

func (MultiSCMExtractor) Applicable(scm SCM) bool {
	_, ok := asMulti(scm)
	return ok
}

func (MultiSCMExtractor) FromSCM(scm SCM, nested func(SCM) []Entry) []Entry {
	multi, ok := asMulti(scm)
	if !ok {
		return nil
	}
	var out []Entry
	for _, inner := range multi.SCMs {
		out = append(out, nested(inner)...)
	}
	return out
}

func asMulti(scm SCM) (*MultiSCM, bool) {
	switch v := scm.(type) {
	case *MultiSCM:
		return v, v != nil
	case MultiSCM:
		return &v, true
	default:
		return nil, false
	}
}
