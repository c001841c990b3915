// Package model はドメインモデルを定義する。
package model

import "time"

// Author は書籍の著者を表す。
type Author struct {
	ID        string
	Name      string
	Country   string
	CreatedAt time.Time
}

// Publisher は出版社を表す。
type Publisher struct {
	ID        string
	Name      string
	Country   string
	CreatedAt time.Time
}

// Book は書籍を表す。
// ISBN13とISBN10はそれぞれ全書籍で一意。
type Book struct {
	ID          string
	Title       string
	AuthorID    string
	PublisherID string
	Image       string
	Published   string
	ISBN13      string
	ISBN10      string
	Status      string
	CreatedAt   time.Time
}

// BookWithRelations は著者・出版社情報を結合した書籍を表す。
// 一覧・詳細レスポンスで使用する。
type BookWithRelations struct {
	Book
	Author    Author
	Publisher Publisher
}
