package controller

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/auth"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/rs/zerolog/log"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindValidation:    http.StatusBadRequest,
	apperror.KindAuthorization: http.StatusForbidden,
	apperror.KindNotFound:      http.StatusNotFound,
	apperror.KindConflict:      http.StatusConflict,
	apperror.KindInternal:      http.StatusInternalServerError,
}

// RespondError writes err as an ErrorResponse. Internal failures are logged
// with the request context and reported without detail.
func RespondError(ctx *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal("internal error", err).(*apperror.Error)
	}
	status, known := statusByKind[appErr.Kind]
	if !known {
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", ctx.GetString(RequestIDKey)).
			Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Msg("request failed")
		ctx.AbortWithStatusJSON(status, dto.ErrorResponse{
			Error: "internal error",
			Kind:  string(apperror.KindInternal),
		})
		return
	}

	resp := dto.ErrorResponse{Error: appErr.Reason, Kind: string(appErr.Kind)}
	if len(appErr.Fields) > 0 {
		resp.Fields = make(map[string]string, len(appErr.Fields))
		for _, f := range appErr.Fields {
			if prev, dup := resp.Fields[f.Field]; dup {
				resp.Fields[f.Field] = prev + "; " + f.Error
				continue
			}
			resp.Fields[f.Field] = f.Error
		}
	}
	ctx.AbortWithStatusJSON(status, resp)
}

var translator = sync.OnceValue(func() ut.Translator {
	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		// Report fields by their wire names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return ""
		})
	}
	return trans
})

// BindJSON decodes the request body into obj and runs its binding rules.
func BindJSON(ctx *gin.Context, obj any) error {
	translator()
	return bindingError(ctx.ShouldBindJSON(obj))
}

// BindQuery binds query parameters into obj and runs its binding rules.
func BindQuery(ctx *gin.Context, obj any) error {
	translator()
	return bindingError(ctx.ShouldBindQuery(obj))
}

func bindingError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("malformed request body", apperror.FieldError{Field: "body", Error: err.Error()})
	}
	trans := translator()
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		// Drop the top-level struct name from "SubmitDTO.answers".
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		fields = append(fields, apperror.FieldError{Field: field, Error: fe.Translate(trans)})
	}
	return apperror.Validation("invalid request", fields...)
}

// ParseIDParam reads a positive numeric path parameter.
func ParseIDParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid "+name, apperror.FieldError{Field: name, Error: "must be a positive integer"})
	}
	return uint(id), nil
}

// Caller returns the authenticated caller. Routes are mounted behind the
// auth middleware, so a missing caller is a wiring bug.
func Caller(ctx *gin.Context) model.Caller {
	caller, ok := auth.CallerFrom(ctx)
	if !ok {
		log.Error().Str("path", ctx.FullPath()).Msg("handler reached without an authenticated caller")
	}
	return caller
}
