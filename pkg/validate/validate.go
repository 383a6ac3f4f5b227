// Package validate provides struct-tag validation. Per the store's contract,
// invariants like the redemption cap are checked by callers before a store
// operation runs; this package is what those callers use.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required        field must not be zero/empty
//	nullable        if empty, skip all remaining rules for this field
//	url             valid URL (http/https)
//	numeric         any number
//	min=N           string: min char length | number: min value
//	max=N           string: max char length | number: max value
//	gte=N           number >= N
//	lte=N           number <= N
//	in=a,b,c        value must be one of the listed items
//
// Example:
//
//	type ProductInput struct {
//	    Name       string `json:"name"        validate:"required,min=2,max=120"`
//	    Price      int    `json:"price"       validate:"required,gte=0"`
//	    CategoryID string `json:"category_id" validate:"required"`
//	    ImageURL   string `json:"image_url"   validate:"nullable,url"`
//	}
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName -> error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := field.Tag.Get("json")
		if idx := strings.IndexByte(name, ','); idx >= 0 {
			name = name[:idx]
		}
		if name == "" {
			name = field.Name
		}

		if msg := checkField(value, tag); msg != "" {
			errs[name] = msg
		}
	}

	return errs
}

func checkField(value reflect.Value, tag string) string {
	rules := strings.Split(tag, ",")

	for i, rule := range rules {
		rule = strings.TrimSpace(rule)

		switch {
		case rule == "required":
			if value.IsZero() {
				return "is required"
			}
		case rule == "nullable":
			if value.IsZero() {
				return ""
			}
		case rule == "url":
			u, err := url.Parse(asString(value))
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return "must be a valid URL"
			}
		case rule == "numeric":
			if _, err := strconv.ParseFloat(asString(value), 64); err != nil {
				return "must be numeric"
			}
		case strings.HasPrefix(rule, "min="):
			if msg := checkBound(value, rule[4:], false); msg != "" {
				return msg
			}
		case strings.HasPrefix(rule, "max="):
			if msg := checkBound(value, rule[4:], true); msg != "" {
				return msg
			}
		case strings.HasPrefix(rule, "gte="):
			if asFloat(value) < mustFloat(rule[4:]) {
				return fmt.Sprintf("must be at least %s", rule[4:])
			}
		case strings.HasPrefix(rule, "lte="):
			if asFloat(value) > mustFloat(rule[4:]) {
				return fmt.Sprintf("must be at most %s", rule[4:])
			}
		case strings.HasPrefix(rule, "in="):
			// "in" consumes the rest of the rule list: options are comma-separated.
			options := strings.Split(strings.Join(append([]string{rule[3:]}, rules[i+1:]...), ","), ",")
			if !contains(options, asString(value)) {
				return fmt.Sprintf("must be one of %s", strings.Join(options, ", "))
			}
			return ""
		}
	}

	return ""
}

// checkBound applies min/max: length for strings, value for numbers.
func checkBound(value reflect.Value, limit string, isMax bool) string {
	n := mustFloat(limit)

	var got float64
	if value.Kind() == reflect.String {
		got = float64(len([]rune(value.String())))
		if isMax && got > n {
			return fmt.Sprintf("must be at most %s characters", limit)
		}
		if !isMax && got < n {
			return fmt.Sprintf("must be at least %s characters", limit)
		}
		return ""
	}

	got = asFloat(value)
	if isMax && got > n {
		return fmt.Sprintf("must be at most %s", limit)
	}
	if !isMax && got < n {
		return fmt.Sprintf("must be at least %s", limit)
	}
	return ""
}

func asString(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

func asFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		f, _ := strconv.ParseFloat(v.String(), 64)
		return f
	default:
		return 0
	}
}

func mustFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if strings.TrimSpace(item) == want {
			return true
		}
	}
	return false
}
