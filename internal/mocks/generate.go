package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name DraftProvider --dir ../usecase --output usecase --outpkg usecasemock --filename draft_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Sender --dir ../platform/webpush --output platform/webpush --outpkg webpushmock --filename sender_mock.go
