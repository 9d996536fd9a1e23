package parser

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var errUnterminated = errors.New("unterminated string literal")

// requote 把字面量写法改写为 JSON：
// 单引号字符串转为双引号，True/False/None 转为 true/false/null，去掉 ] } 前的尾随逗号
func requote(s string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			lit, n, err := readString(s[i:], c)
			if err != nil {
				return "", err
			}
			quoted, err := json.Marshal(lit)
			if err != nil {
				return "", err
			}
			sb.Write(quoted)
			i += n
		case c == ',':
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == ']' || s[j] == '}') {
				i = j
				continue
			}
			sb.WriteByte(c)
			i++
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			switch word {
			case "True":
				word = "true"
			case "False":
				word = "false"
			case "None":
				word = "null"
			}
			sb.WriteString(word)
			i = j
		case c == '(':
			sb.WriteByte('[')
			i++
		case c == ')':
			sb.WriteByte(']')
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// readString 读取以 quote 开头的字符串字面量，返回解码后的内容和消耗的字节数
// 转义兼容 JSON（含 UTF-16 代理对）以及单引号字面量的 \x、\U 和八进制写法
func readString(s string, quote byte) (string, int, error) {
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == quote {
			return sb.String(), i + 1, nil
		}
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		n := readEscape(&sb, s[i+1:])
		i += n
	}
	return "", 0, errUnterminated
}

// readEscape 解码反斜杠之后的转义序列，返回消耗的字节数
func readEscape(sb *strings.Builder, s string) int {
	switch c := s[0]; c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'a':
		sb.WriteByte('\a')
	case 'v':
		sb.WriteByte('\v')
	case '\\', '\'', '"', '/':
		sb.WriteByte(c)
	case '\n':
		// 行续接
	case 'x':
		if r, ok := hexRune(s[1:], 2); ok {
			sb.WriteRune(r)
			return 3
		}
		sb.WriteString(`\x`)
	case 'U':
		if r, ok := hexRune(s[1:], 8); ok && utf8.ValidRune(r) {
			sb.WriteRune(r)
			return 9
		}
		sb.WriteString(`\U`)
	case 'u':
		r, ok := hexRune(s[1:], 4)
		if !ok {
			sb.WriteString(`\u`)
			break
		}
		if utf16.IsSurrogate(r) && len(s) >= 11 && s[5] == '\\' && s[6] == 'u' {
			if lo, ok := hexRune(s[7:], 4); ok {
				if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
					sb.WriteRune(pair)
					return 11
				}
			}
		}
		// 孤立代理项与 encoding/json 一致，写入 U+FFFD
		sb.WriteRune(r)
		return 5
	default:
		if isOctal(c) {
			n := 1
			for n < 3 && n < len(s) && isOctal(s[n]) {
				n++
			}
			v, _ := strconv.ParseUint(s[:n], 8, 32)
			sb.WriteRune(rune(v))
			return n
		}
		// 未知转义保留反斜杠
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}
	return 1
}

func hexRune(s string, digits int) (rune, bool) {
	if len(s) < digits {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:digits], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}
