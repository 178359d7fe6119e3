package service

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	TooManyRequests     = 429
	InternalServerError = 500
)

var (
	ErrParamInvalid            = errors.New("参数错误")
	ErrUserNotFound            = errors.New("用户不存在")
	ErrUserBan                 = errors.New("用户已被封禁")
	ErrUserBanSelf             = errors.New("不能封禁自己")
	ErrUserUsernameExist       = errors.New("用户名已存在")
	ErrPasswordIncorrect       = errors.New("密码错误")
	ErrMissingLoginCredentials = errors.New("缺少登录凭据")
	ErrUserHasRole             = errors.New("用户已拥有此角色")
	ErrRoleNotFound            = errors.New("角色不存在")
	ErrRoleExist               = errors.New("角色已存在")
	ErrPermissionInvalid       = errors.New("权限格式错误")
	ErrFileNotSupported        = errors.New("不支持的文件类型")
	ErrFileTooLarge            = errors.New("文件过大")
	ErrPostNotFound            = errors.New("文章不存在")
	ErrPostSlugExist           = errors.New("文章别名已存在")
	ErrPostCommentClosed       = errors.New("文章已关闭评论")
	ErrCategoryNotFound        = errors.New("分类不存在")
	ErrCategoryExist           = errors.New("分类已存在")
	ErrTagNotFound             = errors.New("标签不存在")
	ErrTagExist                = errors.New("标签已存在")
	ErrCommentNotFound         = errors.New("评论不存在")
	ErrCommentContentEmpty     = errors.New("评论内容不能为空")
	ErrCommentContentTooLong   = errors.New("评论内容过长")
	ErrCommentAuthorEmpty      = errors.New("评论昵称不能为空")
	ErrCommentEmailInvalid     = errors.New("邮箱格式错误")
	ErrCommentParentInvalid    = errors.New("回复的评论不存在")
	ErrCommentTooFrequent      = errors.New("评论过于频繁，请稍后再试")
	UnauthorizedError          = errors.New("权限不足")
	UnExpectedError            = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:            BadRequest,
	ErrUserNotFound:            NotFound,
	ErrUserBan:                 Unauthorized,
	ErrUserBanSelf:             BadRequest,
	ErrUserUsernameExist:       BadRequest,
	ErrPasswordIncorrect:       Unauthorized,
	ErrMissingLoginCredentials: Unauthorized,
	ErrUserHasRole:             BadRequest,
	ErrRoleNotFound:            NotFound,
	ErrRoleExist:               BadRequest,
	ErrPermissionInvalid:       BadRequest,
	ErrFileNotSupported:        BadRequest,
	ErrFileTooLarge:            BadRequest,
	ErrPostNotFound:            NotFound,
	ErrPostSlugExist:           BadRequest,
	ErrPostCommentClosed:       BadRequest,
	ErrCategoryNotFound:        NotFound,
	ErrCategoryExist:           BadRequest,
	ErrTagNotFound:             NotFound,
	ErrTagExist:                BadRequest,
	ErrCommentNotFound:         NotFound,
	ErrCommentContentEmpty:     BadRequest,
	ErrCommentContentTooLong:   BadRequest,
	ErrCommentAuthorEmpty:      BadRequest,
	ErrCommentEmailInvalid:     BadRequest,
	ErrCommentParentInvalid:    BadRequest,
	ErrCommentTooFrequent:      TooManyRequests,
	UnauthorizedError:          Forbidden,
	UnExpectedError:            InternalServerError,
}

// isDuplicateError 唯一键冲突
func isDuplicateError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
