package logger

type Field struct {
	Key   string
	Value interface{}
}

// 日志字段收敛

func Module(m string) Field {
	return Field{
		Key:   "module",
		Value: m,
	}
}

func Service(name, version string) Field {
	return Field{
		Key:   "service",
		Value: name + "@" + version,
	}
}

func Operation(op string) Field {
	return Field{
		Key:   "operation",
		Value: op,
	}
}

func Error(err error) Field {
	return Field{
		Key:   "error",
		Value: err,
	}
}

// Fields folds Field values into the map shape Log expects.
func Fields(fs ...Field) map[string]interface{} {
	m := make(map[string]interface{}, len(fs))
	for _, f := range fs {
		m[f.Key] = f.Value
	}
	return m
}
