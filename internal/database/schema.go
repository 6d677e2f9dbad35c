package database

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		category VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS variants (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id BIGINT NOT NULL,
		sku VARCHAR(64) NOT NULL UNIQUE,
		color VARCHAR(64) NOT NULL DEFAULT '',
		base_price DECIMAL(10,2) NOT NULL,
		sale_percentage DECIMAL(5,2) NOT NULL DEFAULT 0,
		current_stock INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (product_id) REFERENCES products(id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS variant_sizes (
		variant_id BIGINT NOT NULL,
		size VARCHAR(16) NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		price DECIMAL(10,2) NULL,
		PRIMARY KEY (variant_id, size),
		FOREIGN KEY (variant_id) REFERENCES variants(id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS coupons (
		code VARCHAR(64) PRIMARY KEY,
		discount_type VARCHAR(16) NOT NULL,
		discount_value DECIMAL(10,2) NOT NULL,
		min_purchase DECIMAL(10,2) NOT NULL DEFAULT 0,
		max_discount DECIMAL(10,2) NULL,
		valid_from DATETIME NOT NULL,
		valid_until DATETIME NOT NULL,
		usage_limit INT NOT NULL,
		times_used INT NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CHECK (times_used <= usage_limit)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) PRIMARY KEY,
		user_id BIGINT NOT NULL,
		address_id BIGINT NOT NULL,
		payment_method VARCHAR(8) NOT NULL,
		total_price DECIMAL(10,2) NOT NULL,
		status VARCHAR(32) NOT NULL,
		coupon_code VARCHAR(64) NULL,
		coupon_discount DECIMAL(10,2) NULL,
		payment_token VARCHAR(128) NOT NULL DEFAULT '',
		payment_retry_url VARCHAR(512) NOT NULL DEFAULT '',
		gateway_payment_id VARCHAR(128) NOT NULL DEFAULT '',
		stock_reserved BOOLEAN NOT NULL DEFAULT FALSE,
		coupon_applied BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_orders_status_created (status, created_at),
		INDEX idx_orders_user (user_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id CHAR(36) NOT NULL,
		variant_id BIGINT NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		category VARCHAR(64) NOT NULL,
		size VARCHAR(16) NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		backordered BOOLEAN NOT NULL DEFAULT FALSE,
		FOREIGN KEY (order_id) REFERENCES orders(id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS order_comments (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id CHAR(36) NOT NULL,
		from_status VARCHAR(32) NOT NULL,
		to_status VARCHAR(32) NOT NULL,
		comment TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id)
	) ENGINE=InnoDB`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS variants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id),
		sku TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL DEFAULT '',
		base_price DECIMAL(10,2) NOT NULL,
		sale_percentage DECIMAL(5,2) NOT NULL DEFAULT 0,
		current_stock INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS variant_sizes (
		variant_id INTEGER NOT NULL REFERENCES variants(id),
		size TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		price DECIMAL(10,2),
		PRIMARY KEY (variant_id, size)
	)`,
	`CREATE TABLE IF NOT EXISTS coupons (
		code TEXT PRIMARY KEY,
		discount_type TEXT NOT NULL,
		discount_value DECIMAL(10,2) NOT NULL,
		min_purchase DECIMAL(10,2) NOT NULL DEFAULT 0,
		max_discount DECIMAL(10,2),
		valid_from DATETIME NOT NULL,
		valid_until DATETIME NOT NULL,
		usage_limit INTEGER NOT NULL,
		times_used INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CHECK (times_used <= usage_limit)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		address_id INTEGER NOT NULL,
		payment_method TEXT NOT NULL,
		total_price DECIMAL(10,2) NOT NULL,
		status TEXT NOT NULL,
		coupon_code TEXT,
		coupon_discount DECIMAL(10,2),
		payment_token TEXT NOT NULL DEFAULT '',
		payment_retry_url TEXT NOT NULL DEFAULT '',
		gateway_payment_id TEXT NOT NULL DEFAULT '',
		stock_reserved BOOLEAN NOT NULL DEFAULT 0,
		coupon_applied BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL REFERENCES orders(id),
		variant_id INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		category TEXT NOT NULL,
		size TEXT,
		quantity INTEGER NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		backordered BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS order_comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL REFERENCES orders(id),
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		comment TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
}
