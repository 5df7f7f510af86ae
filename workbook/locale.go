package workbook

import "strings"

// Locale holds every user-visible string and format of the sheet.
// Formats taking a year use a single %d verb.
type Locale struct {
	Name        string
	SheetName   string
	TitleFormat string
	Headers     [NumCols]string
	Totals      [3]string
	CarryFormat string
	IncomeFmt   string
	ExpenseFmt  string
	BalanceFmt  string
	FilePrefix  string
	Font        string

	// MoneyFmt is an Excel number format: positive;negative;zero;text.
	MoneyFmt string

	// SheetsMoneyFmt is the Google Sheets equivalent of MoneyFmt.
	SheetsMoneyFmt string
}

// English is the default locale.
var English = Locale{
	Name:        "en",
	SheetName:   "Ledger",
	TitleFormat: "%d Fund Ledger",
	Headers:     [NumCols]string{"Year", "Month", "Day", "Description", "Income", "Expense", "Balance"},
	Totals:      [3]string{"Total Income", "Total Expense", "Total Balance"},
	CarryFormat: "%d Carry-forward",
	IncomeFmt:   "%d Income",
	ExpenseFmt:  "%d Expense",
	BalanceFmt:  "%d Balance",
	FilePrefix:  "ledger",
	Font:        "Calibri",

	MoneyFmt:       `_-[$$-en-US]* #,##0.00_-;-[$$-en-US]* #,##0.00_-;_-[$$-en-US]* "-"??_-;_-@_-`,
	SheetsMoneyFmt: `"$"#,##0.00;-"$"#,##0.00;"-"`,
}

// Korean matches the paper ledger format the sheet was modelled on.
var Korean = Locale{
	Name:        "ko",
	SheetName:   "공금수불부",
	TitleFormat: "%d년 공금 수불부",
	Headers:     [NumCols]string{"년", "월", "일", "적요", "수입", "지출", "잔액"},
	Totals:      [3]string{"총 수입", "총 지출", "총 잔액"},
	CarryFormat: "%d년 이월금",
	IncomeFmt:   "%d년 수입",
	ExpenseFmt:  "%d년 지출",
	BalanceFmt:  "%d년 총 잔액",
	FilePrefix:  "입출금내역",
	Font:        "맑은 고딕",

	MoneyFmt:       `_-[$₩-ko-KR]* #,##0_-;-[$₩-ko-KR]* #,##0_-;_-[$₩-ko-KR]* "-"_-;_-@_-`,
	SheetsMoneyFmt: `"₩"#,##0;-"₩"#,##0;"-"`,
}

// LocaleFor returns the locale named by tag ("ko", "ko-KR", "en"...).
// Unknown tags fall back to English.
func LocaleFor(tag string) Locale {
	if language(tag) == "ko" {
		return Korean
	}
	return English
}

// SupportedLocale reports whether tag names a locale LocaleFor knows,
// with or without a region suffix.
func SupportedLocale(tag string) bool {
	switch language(tag) {
	case "en", "ko":
		return true
	}
	return false
}

// language returns the lower-cased language part of tag ("ko_KR" -> "ko").
func language(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}
