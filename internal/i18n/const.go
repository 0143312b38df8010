package i18n

// Common errors
var (
	ErrNotFound       = NewErrorWithCode("ErrorResourceNotFound", ErrorNotFound)
	ErrUnauthorized   = NewErrorWithCode("ErrorUnauthorized", ErrorUnauthorized)
	ErrForbidden      = NewErrorWithCode("ErrorForbidden", ErrorForbidden)
	ErrBadRequest     = NewErrorWithCode("ErrorBadRequest", ErrorBadRequest)
	ErrInternalServer = NewErrorWithCode("ErrorInternalServer", ErrorInternalServer)
)

// User related errors
var (
	ErrorUserNotFound       = NewErrorWithCode("ErrorUserNotFound", ErrorNotFound)
	ErrorInvalidCredentials = NewErrorWithCode("ErrorInvalidCredentials", ErrorUnauthorized)
	ErrorUserDisabled       = NewErrorWithCode("ErrorUserDisabled", ErrorForbidden)
	ErrorInvalidOldPassword = NewErrorWithCode("ErrorInvalidOldPassword", ErrorForbidden)
	ErrorUsernameExists     = NewErrorWithCode("ErrorUsernameExists", ErrorConflict)
	ErrorEmailExists        = NewErrorWithCode("ErrorEmailExists", ErrorConflict)
	ErrorPasswordTooShort   = NewErrorWithCode("ErrorPasswordTooShort", ErrorBadRequest)
)

// Friendship related errors
var (
	ErrorSelfFriendRequest  = NewErrorWithCode("ErrorSelfFriendRequest", ErrorBadRequest)
	ErrorAlreadyFriends     = NewErrorWithCode("ErrorAlreadyFriends", ErrorBadRequest)
	ErrorRequestAlreadySent = NewErrorWithCode("ErrorRequestAlreadySent", ErrorBadRequest)
	ErrorRequestNotFound    = NewErrorWithCode("ErrorRequestNotFound", ErrorNotFound)
	ErrorRequestNotPending  = NewErrorWithCode("ErrorRequestNotPending", ErrorBadRequest)
	ErrorNotFriends         = NewErrorWithCode("ErrorNotFriends", ErrorForbidden)
)

// Message and notification related errors
var (
	ErrorSelfMessage          = NewErrorWithCode("ErrorSelfMessage", ErrorBadRequest)
	ErrorMessageNotFound      = NewErrorWithCode("ErrorMessageNotFound", ErrorNotFound)
	ErrorNotMessageSender     = NewErrorWithCode("ErrorNotMessageSender", ErrorForbidden)
	ErrorNotificationNotFound = NewErrorWithCode("ErrorNotificationNotFound", ErrorNotFound)
)

// Post related errors
var (
	ErrorPostNotFound    = NewErrorWithCode("ErrorPostNotFound", ErrorNotFound)
	ErrorNotPostAuthor   = NewErrorWithCode("ErrorNotPostAuthor", ErrorForbidden)
	ErrorCommentNotFound = NewErrorWithCode("ErrorCommentNotFound", ErrorNotFound)
)

// General validation errors
var (
	ErrorRequiredField = NewErrorWithCode("ErrorRequiredField", ErrorBadRequest)
	ErrorInvalidFormat = NewErrorWithCode("ErrorInvalidFormat", ErrorBadRequest)
)

// Success messages
const (
	SuccessRegistered      = "SuccessRegistered"
	SuccessLogin           = "SuccessLogin"
	SuccessPasswordChanged = "SuccessPasswordChanged"
	SuccessUserInfo        = "SuccessUserInfo"
	SuccessUserList        = "SuccessUserList"
	SuccessUserUpdated     = "SuccessUserUpdated"
	SuccessUserDeleted     = "SuccessUserDeleted"

	SuccessFriendRequestSent     = "SuccessFriendRequestSent"
	SuccessFriendRequestAccepted = "SuccessFriendRequestAccepted"
	SuccessFriendRequestRejected = "SuccessFriendRequestRejected"
	SuccessFriendRemoved         = "SuccessFriendRemoved"
	SuccessFriendList            = "SuccessFriendList"
	SuccessFriendStatus          = "SuccessFriendStatus"

	SuccessMessageSent    = "SuccessMessageSent"
	SuccessMessageDeleted = "SuccessMessageDeleted"
	SuccessConversations  = "SuccessConversations"
	SuccessChatMessages   = "SuccessChatMessages"

	SuccessNotificationList    = "SuccessNotificationList"
	SuccessNotificationRead    = "SuccessNotificationRead"
	SuccessNotificationDeleted = "SuccessNotificationDeleted"

	SuccessPostCreated   = "SuccessPostCreated"
	SuccessPostUpdated   = "SuccessPostUpdated"
	SuccessPostDeleted   = "SuccessPostDeleted"
	SuccessPostList      = "SuccessPostList"
	SuccessPostInfo      = "SuccessPostInfo"
	SuccessPostLiked     = "SuccessPostLiked"
	SuccessCommentAdded  = "SuccessCommentAdded"
	SuccessCommentList   = "SuccessCommentList"
	SuccessOperationDone = "SuccessOperationCompleted"
)
