package http

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-slark/svcindex/encoding"
	"github.com/go-slark/svcindex/encoding/form"
	"github.com/go-slark/svcindex/encoding/json"
	_ "github.com/go-slark/svcindex/encoding/msgpack"
	"github.com/go-slark/svcindex/errors"
	utils "github.com/go-slark/svcindex/pkg"
)

func SubContentType(name string) string {
	left := strings.Index(name, "/")
	if left == -1 {
		return ""
	}
	right := strings.Index(name, ";")
	if right == -1 {
		right = len(name)
	}
	if right < left {
		return ""
	}
	return strings.TrimSpace(name[left+1 : right])
}

// Codec picks the first codec named by the header values of name. It falls
// back to json and reports false when none is registered.
func Codec(req *http.Request, name string) (encoding.Codec, bool) {
	for _, v := range req.Header.Values(name) {
		for _, part := range strings.Split(v, ",") {
			if codec := encoding.GetCodec(SubContentType(part)); codec != nil {
				return codec, true
			}
		}
	}
	return encoding.GetCodec(json.Name), false
}

type Codecs struct {
	bodyDecoder  func(*http.Request, interface{}) error
	varsDecoder  func(*http.Request, interface{}) error
	queryDecoder func(*http.Request, interface{}) error
	rspEncoder   func(*http.Request, http.ResponseWriter, interface{}) error
	errorEncoder func(*http.Request, http.ResponseWriter, error)
}

func RequestBodyDecoder(req *http.Request, v interface{}) error {
	codec, valid := Codec(req, utils.ContentType)
	if !valid && req.Header.Get(utils.ContentType) != "" {
		return errors.BadRequest(errors.InvalidFormat, fmt.Sprintf("content-type %s not supported", req.Header.Get(utils.ContentType)))
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return errors.BadRequest(errors.InvalidFormat, err.Error())
	}
	if len(body) == 0 {
		return nil
	}
	if err = codec.Unmarshal(body, v); err != nil {
		if se := new(errors.Error); errors.As(err, &se) {
			return se
		}
		return errors.BadRequest(errors.InvalidFormat, fmt.Sprintf("unmarshal body: %s", err.Error())).WithError(err)
	}
	return nil
}

func bind(vars url.Values, v interface{}) error {
	if err := encoding.GetCodec(form.Name).Unmarshal([]byte(vars.Encode()), v); err != nil {
		return errors.BadRequest(errors.InvalidParam, err.Error()).WithError(err)
	}
	return nil
}

func RequestVarsDecoder(req *http.Request, v interface{}) error {
	params := utils.Vars(req.Context())
	vars := make(url.Values, len(params))
	for key, value := range params {
		vars[key] = []string{value}
	}
	return bind(vars, v)
}

func RequestQueryDecoder(req *http.Request, v interface{}) error {
	return bind(req.URL.Query(), v)
}

func SetContentType(subtype string) string {
	return strings.Join([]string{utils.Application, subtype}, "/")
}

func ResponseEncoder(req *http.Request, rsp http.ResponseWriter, v interface{}) error {
	codec, _ := Codec(req, utils.Accept)
	data, err := codec.Marshal(v)
	if err != nil {
		return err
	}
	rsp.Header().Set(utils.ContentType, SetContentType(codec.Name()))
	_, err = rsp.Write(data)
	return err
}

// DefaultErrorEncoder writes err as an *errors.Error body with its own status code.
func DefaultErrorEncoder(req *http.Request, rsp http.ResponseWriter, err error) {
	e := errors.FromError(err)
	codec, _ := Codec(req, utils.Accept)
	body, err := codec.Marshal(e)
	if err != nil {
		rsp.WriteHeader(http.StatusInternalServerError)
		return
	}
	rsp.Header().Set(utils.ContentType, SetContentType(codec.Name()))
	rsp.WriteHeader(int(e.Code))
	_, _ = rsp.Write(body)
}
