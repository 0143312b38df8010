package cnst

const (
	LangEN      = "en"
	LangZH      = "zh"
	LangDefault = LangEN

	// XLang is both the request header carrying the preferred language and the gin context key it is stored under
	XLang = "X-Lang"
)
