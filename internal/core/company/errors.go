package company

import "errors"

var (
	// ErrCompanyNotFound は会社が存在しない場合に返却されます。
	ErrCompanyNotFound = errors.New("company not found")
	// ErrInvalidName は会社名が不正な場合に返却されます。
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
	// ErrHasApprovedEmployees は承認済み従業員が残る会社を削除しようとした場合に返却されます。
	ErrHasApprovedEmployees = errors.New("company has approved employees")
)
